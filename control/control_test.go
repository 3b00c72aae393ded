package control

import (
	"testing"
)

func TestConfigStore_TypedDefaults(t *testing.T) {
	cs := NewConfigStore()
	cfg, err := cs.Typed()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.AllocBackend != BackendMmap || cfg.AllocMaxBytes != 0 || cfg.MergeQueueHint != 16 {
		t.Errorf("defaults = %+v", cfg)
	}
}

func TestConfigStore_SetAndReload(t *testing.T) {
	cs := NewConfigStore()
	calls := 0
	cs.OnReload(func() { calls++ })
	cs.SetConfig(map[string]any{
		KeyAllocBackend:  BackendHeap,
		KeyAllocMaxBytes: "8192",
		KeyRunnerWorkers: 3,
	})
	if calls != 1 {
		t.Errorf("reload listener called %d times", calls)
	}
	cfg, err := cs.Typed()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.AllocBackend != BackendHeap || cfg.AllocMaxBytes != 8192 || cfg.Workers != 3 {
		t.Errorf("typed = %+v", cfg)
	}
}

func TestConfigStore_WrongType(t *testing.T) {
	cs := NewConfigStore()
	cs.SetConfig(map[string]any{KeyRunnerWorkers: []int{1}})
	if _, err := cs.Typed(); err == nil {
		t.Error("expected type error")
	}
}

func TestMetricsRegistry_Add(t *testing.T) {
	reg := NewMetricsRegistry()
	reg.Add("merge.results", 2)
	reg.Add("merge.results", 3)
	reg.Set("pool.allocs", int64(1))
	snap := reg.GetSnapshot()
	if snap["merge.results"] != int64(5) || snap["pool.allocs"] != int64(1) {
		t.Errorf("snapshot = %v", snap)
	}
	if reg.Updated().IsZero() {
		t.Error("update time not recorded")
	}
}

func TestDebugProbes_Dump(t *testing.T) {
	dp := NewDebugProbes()
	RegisterPlatformProbes(dp)
	dp.RegisterProbe("buffers", func() any { return 4 })
	state := dp.DumpState()
	if state["buffers"] != 4 || state["platform.cpus"].(int) < 1 {
		t.Errorf("state = %v", state)
	}
}

func TestConfigStore_PinWorkers(t *testing.T) {
	cs := NewConfigStore()
	cs.SetConfig(map[string]any{KeyRunnerPin: "true"})
	cfg, err := cs.Typed()
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.PinWorkers {
		t.Error("pin flag not decoded")
	}
	cs.SetConfig(map[string]any{KeyRunnerPin: 1})
	if _, err := cs.Typed(); err == nil {
		t.Error("expected type error for integer pin flag")
	}
}
