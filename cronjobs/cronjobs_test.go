package cronjobs

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakePruner struct {
	calls     int
	retention time.Duration
	err       error
}

func (f *fakePruner) Prune(ctx context.Context, retention time.Duration) (int, error) {
	f.calls++
	f.retention = retention
	if _, ok := ctx.Deadline(); !ok {
		return 0, errors.New("expected a deadline")
	}
	return 3, f.err
}

type fakeProber struct {
	calls int
	okAt  int
}

func (f *fakeProber) Probe() bool {
	f.calls++
	return f.calls >= f.okAt
}

func TestPruneJob(t *testing.T) {
	p := &fakePruner{}
	pruneJob(p, 48*time.Hour)()
	if p.calls != 1 || p.retention != 48*time.Hour {
		t.Fatalf("unexpected prune call: %+v", p)
	}

	p.err = errors.New("db locked")
	pruneJob(p, time.Hour)()
	if p.calls != 2 {
		t.Fatalf("expected second call, got %d", p.calls)
	}
}

func TestProbeJobStopsAfterLoad(t *testing.T) {
	p := &fakeProber{okAt: 2}
	job := probeJob(p)
	for i := 0; i < 5; i++ {
		job()
	}
	if p.calls != 2 {
		t.Fatalf("expected probing to stop after success, got %d calls", p.calls)
	}
}

func TestInitCronJobsSchedules(t *testing.T) {
	c := InitCronJobs(&fakePruner{}, &fakeProber{}, 30)
	defer c.Stop()
	if n := len(c.Entries()); n != 2 {
		t.Fatalf("expected 2 entries, got %d", n)
	}

	c2 := InitCronJobs(nil, &fakeProber{}, 30)
	defer c2.Stop()
	if n := len(c2.Entries()); n != 1 {
		t.Fatalf("expected 1 entry, got %d", n)
	}
}
