package compute

import (
	"errors"
	"testing"
)

// stubBackend is a Backend whose Init outcome is fixed.
type stubBackend struct {
	name    string
	initErr error
	inited  bool
}

func (s *stubBackend) Name() string { return s.name }
func (s *stubBackend) Init() error {
	if s.initErr != nil {
		return s.initErr
	}
	s.inited = true
	return nil
}
func (s *stubBackend) Close()                                           {}
func (s *stubBackend) NewFloatBuffer(string, []float32) (Buffer, error) { return nil, nil }
func (s *stubBackend) NewIntBuffer(string, []int32) (Buffer, error)     { return nil, nil }
func (s *stubBackend) WriteFloats(Buffer, []float32) error              { return nil }
func (s *stubBackend) ReadFloats(Buffer, []float32) error               { return nil }
func (s *stubBackend) ReleaseBuffer(Buffer)                             {}
func (s *stubBackend) Kernel(string) (Kernel, error)                    { return nil, ErrUnknownKernel }
func (s *stubBackend) Dispatch(Kernel, int, ...Arg) error               { return nil }

func withRegistry(t *testing.T, entries map[string]Factory) {
	t.Helper()
	registryMu.Lock()
	saved := backends
	backends = make(map[string]Factory, len(entries))
	for k, v := range entries {
		backends[k] = v
	}
	registryMu.Unlock()
	t.Cleanup(func() {
		registryMu.Lock()
		backends = saved
		registryMu.Unlock()
	})
}

func TestRegisterAndGet(t *testing.T) {
	withRegistry(t, nil)

	if IsRegistered("stub") {
		t.Fatal("stub registered before Register")
	}
	Register("stub", func() Backend { return &stubBackend{name: "stub"} })
	if !IsRegistered("stub") {
		t.Fatal("stub not registered after Register")
	}
	b := Get("stub")
	if b == nil || b.Name() != "stub" {
		t.Fatalf("Get(stub) = %v", b)
	}
	if Get("missing") != nil {
		t.Error("Get(missing) should be nil")
	}

	Unregister("stub")
	if IsRegistered("stub") {
		t.Error("stub still registered after Unregister")
	}
}

func TestAvailableSorted(t *testing.T) {
	withRegistry(t, map[string]Factory{
		"zeta":  func() Backend { return &stubBackend{name: "zeta"} },
		"alpha": func() Backend { return &stubBackend{name: "alpha"} },
	})

	got := Available()
	if len(got) != 2 || got[0] != "alpha" || got[1] != "zeta" {
		t.Errorf("Available() = %v, want [alpha zeta]", got)
	}
}

func TestOpenPriorityFallback(t *testing.T) {
	withRegistry(t, map[string]Factory{
		BackendWGPU:     func() Backend { return &stubBackend{name: BackendWGPU, initErr: errors.New("no vulkan")} },
		BackendSoftware: func() Backend { return &stubBackend{name: BackendSoftware} },
	})

	b, err := Open("")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if b.Name() != BackendSoftware {
		t.Errorf("Open() picked %q, want %q", b.Name(), BackendSoftware)
	}
}

func TestOpenNamed(t *testing.T) {
	withRegistry(t, map[string]Factory{
		BackendWGPU: func() Backend { return &stubBackend{name: BackendWGPU, initErr: errors.New("no vulkan")} },
	})

	if _, err := Open(BackendWGPU); !errors.Is(err, ErrBackendNotAvailable) {
		t.Errorf("Open(wgpu) error = %v, want ErrBackendNotAvailable", err)
	}
	if _, err := Open("nope"); !errors.Is(err, ErrBackendNotAvailable) {
		t.Errorf("Open(nope) error = %v, want ErrBackendNotAvailable", err)
	}
}

func TestOpenNothingRegistered(t *testing.T) {
	withRegistry(t, nil)

	if _, err := Open(""); !errors.Is(err, ErrBackendNotAvailable) {
		t.Errorf("Open() error = %v, want ErrBackendNotAvailable", err)
	}
}
