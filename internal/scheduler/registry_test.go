package scheduler

import "testing"

func TestSwapActiveScheduler(t *testing.T) {
	first, err := NewSlurmSchedulerWithCommand("sbatch")
	if err != nil {
		t.Fatal(err)
	}
	second, err := NewSlurmSchedulerWithCommand("ssh login01 sbatch")
	if err != nil {
		t.Fatal(err)
	}

	restoreOuter := SwapActiveScheduler(first)
	defer restoreOuter()

	restore := SwapActiveScheduler(second)
	if ActiveScheduler() != Scheduler(second) {
		t.Fatalf("ActiveScheduler() is not the swapped-in scheduler")
	}
	restore()
	if ActiveScheduler() != Scheduler(first) {
		t.Errorf("restore did not bring back the previous scheduler")
	}

	ClearActiveScheduler()
	if ActiveScheduler() != nil {
		t.Errorf("ActiveScheduler() = %v after clear; want nil", ActiveScheduler())
	}
}
