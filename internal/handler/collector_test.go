package handler

import "time"

// fakeCollector はテスト用のメトリクスコレクター。記録された呼び出しを数える。
type fakeCollector struct {
	statuses            []int
	latencies           int
	loginSuccesses      int
	loginFailures       int
	appointmentsCreated int
	transitions         []string
	resolved            []string
	backupSuccesses     int
	backupFailures      int
}

func (f *fakeCollector) RecordHTTPStatus(statusCode int) { f.statuses = append(f.statuses, statusCode) }
func (f *fakeCollector) RecordRequestLatency(d time.Duration) { f.latencies++ }

func (f *fakeCollector) RecordLogin(success bool) {
	if success {
		f.loginSuccesses++
	} else {
		f.loginFailures++
	}
}

func (f *fakeCollector) RecordAppointmentCreated() { f.appointmentsCreated++ }

func (f *fakeCollector) RecordAppointmentTransition(to string) {
	f.transitions = append(f.transitions, to)
}

func (f *fakeCollector) RecordRequestResolved(status string) {
	f.resolved = append(f.resolved, status)
}

func (f *fakeCollector) RecordSnapshotBackup(success bool) {
	if success {
		f.backupSuccesses++
	} else {
		f.backupFailures++
	}
}
