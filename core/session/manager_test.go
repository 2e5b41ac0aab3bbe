package session

import (
	"sync"
	"testing"
)

func TestStartCreatesActiveSession(t *testing.T) {
	m := NewMemoryManager()
	sess := m.Start(1, ProviderChatText)
	if !sess.Active || sess.Provider != ProviderChatText || sess.State != StateIdle {
		t.Fatalf("unexpected session: %+v", sess)
	}
	if !m.HasActive(1) {
		t.Fatal("HasActive should be true")
	}
}

func TestStartSameProviderIsIdempotent(t *testing.T) {
	m := NewMemoryManager()
	m.Start(1, ProviderImageGen)
	m.SetState(1, StateAwaitingInput)
	m.SetTemp(1, "prompt", "a cat")

	again := m.Start(1, ProviderImageGen)
	if again.State != StateAwaitingInput {
		t.Fatalf("state = %s, restart must not reset the existing session", again.State)
	}
	if v, ok := m.GetTemp(1, "prompt"); !ok || v != "a cat" {
		t.Fatal("temp data lost on idempotent start")
	}
}

func TestStartOtherProviderSupersedes(t *testing.T) {
	m := NewMemoryManager()
	m.Start(1, ProviderChatText)
	m.SetState(1, StateAwaitingInput)

	sess := m.Start(1, ProviderVideoGen)
	if sess.Provider != ProviderVideoGen || !sess.Active {
		t.Fatalf("unexpected session: %+v", sess)
	}
	if sess.State != StateIdle {
		t.Fatalf("superseding start must begin fresh, state = %s", sess.State)
	}

	got, ok := m.Get(1)
	if !ok || got.Provider != ProviderVideoGen {
		t.Fatalf("Get = %+v", got)
	}
}

func TestEndKeepsTerminalRecord(t *testing.T) {
	m := NewMemoryManager()
	m.Start(1, ProviderChatImage)
	m.End(1)

	if m.HasActive(1) {
		t.Fatal("HasActive should be false after End")
	}
	got, ok := m.Get(1)
	if !ok {
		t.Fatal("terminal record should remain readable")
	}
	if got.Active {
		t.Fatal("terminal record must read inactive")
	}
	if m.GetState(1) != StateIdle {
		t.Fatalf("GetState = %s, want idle after end", m.GetState(1))
	}
}

func TestEndedSessionIgnoresMutations(t *testing.T) {
	m := NewMemoryManager()
	m.Start(1, ProviderChatText)
	m.End(1)

	m.SetState(1, StateProcessing)
	m.SetTemp(1, "k", "v")
	if m.GetState(1) != StateIdle {
		t.Fatal("SetState must not revive an ended session")
	}
	if _, ok := m.GetTemp(1, "k"); ok {
		t.Fatal("SetTemp must not write to an ended session")
	}
}

func TestInProgress(t *testing.T) {
	m := NewMemoryManager()
	if m.InProgress(1) {
		t.Fatal("no session, not in progress")
	}
	m.Start(1, ProviderChatText)
	if m.InProgress(1) {
		t.Fatal("idle session is not in progress")
	}
	m.SetState(1, StateAwaitingInput)
	if !m.InProgress(1) {
		t.Fatal("awaiting-input session is in progress")
	}
	m.End(1)
	if m.InProgress(1) {
		t.Fatal("ended session is not in progress")
	}
}

func TestSingleActiveUnderConcurrentStarts(t *testing.T) {
	m := NewMemoryManager()
	providers := []Provider{ProviderChatText, ProviderChatImage, ProviderImageGen, ProviderVideoGen}

	var writers sync.WaitGroup
	stop := make(chan struct{})

	// Hammer starts and ends for one user while a reader checks that the
	// record is always a single coherent session.
	for i := 0; i < 8; i++ {
		writers.Add(1)
		go func(i int) {
			defer writers.Done()
			for j := 0; j < 200; j++ {
				p := providers[(i+j)%len(providers)]
				sess := m.Start(42, p)
				if !sess.Active {
					t.Error("Start returned inactive session")
					return
				}
				if j%17 == 0 {
					m.End(42)
				}
			}
		}(i)
	}

	var reader sync.WaitGroup
	reader.Add(1)
	go func() {
		defer reader.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			if sess, ok := m.Get(42); ok && sess.Active && sess.Provider == "" {
				t.Error("active session without provider")
				return
			}
		}
	}()

	writers.Wait()
	close(stop)
	reader.Wait()

	// Different users do not interfere.
	m.Start(1, ProviderChatText)
	m.Start(2, ProviderVideoGen)
	if !m.HasActive(1) || !m.HasActive(2) {
		t.Fatal("per-user sessions must be independent")
	}
}
