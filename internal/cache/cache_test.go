package cache

import (
	"errors"
	"sync"
	"testing"
)

func TestGetOrCreate_BuildsOnce(t *testing.T) {
	c := New[string, int]()
	build := func() (int, error) { return 42, nil }

	for range 3 {
		v, err := c.GetOrCreate("a", build)
		if err != nil || v != 42 {
			t.Fatalf("GetOrCreate() = %d, %v, want 42, nil", v, err)
		}
	}
	if c.Builds() != 1 {
		t.Errorf("Builds() = %d, want 1", c.Builds())
	}
	if v, ok := c.Get("a"); !ok || v != 42 {
		t.Errorf("Get() = %d, %v, want 42, true", v, ok)
	}
}

func TestGetOrCreate_ErrorsAreNotCached(t *testing.T) {
	c := New[string, int]()
	errBuild := errors.New("build failed")

	if _, err := c.GetOrCreate("a", func() (int, error) { return 0, errBuild }); !errors.Is(err, errBuild) {
		t.Fatalf("GetOrCreate() error = %v, want errBuild", err)
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d after failed build, want 0", c.Len())
	}
	v, err := c.GetOrCreate("a", func() (int, error) { return 7, nil })
	if err != nil || v != 7 {
		t.Errorf("retry GetOrCreate() = %d, %v, want 7, nil", v, err)
	}
	if c.Builds() != 2 {
		t.Errorf("Builds() = %d, want 2", c.Builds())
	}
}

func TestDeleteClear(t *testing.T) {
	c := New[int, string]()
	for i := range 4 {
		_, _ = c.GetOrCreate(i, func() (string, error) { return "v", nil })
	}
	if !c.Delete(1) || c.Delete(1) {
		t.Error("Delete() should report presence once")
	}
	if c.Len() != 3 {
		t.Errorf("Len() = %d, want 3", c.Len())
	}
	c.Clear()
	if _, ok := c.Get(0); ok || c.Len() != 0 {
		t.Error("Clear() left entries behind")
	}
}

func TestGetOrCreate_Concurrent(t *testing.T) {
	c := New[string, int]()
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.GetOrCreate("shared", func() (int, error) { return 1, nil })
		}()
	}
	wg.Wait()
	if c.Builds() != 1 {
		t.Errorf("Builds() = %d, want 1", c.Builds())
	}
}
