package persistence_test

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io"
	"testing"

	"github.com/aretw0/remodel/pkg/domain"
	"github.com/aretw0/remodel/pkg/persistence"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func sealed(t *testing.T, cfg persistence.EncryptionConfig) persistence.Codec {
	mw, err := persistence.NewEncryption(cfg)
	if err != nil {
		t.Fatalf("NewEncryption failed: %v", err)
	}
	return persistence.Chain(persistence.JSON{}, mw)
}

func snapshot() *domain.Snapshot {
	return &domain.Snapshot{
		SessionID: "s-1",
		State:     *domain.NewState(domain.FamilyRoomPlan, domain.PhaseInitializing),
	}
}

func TestEncryption_Roundtrip(t *testing.T) {
	codec := sealed(t, persistence.EncryptionConfig{ActiveKey: generateKey(t)})

	data, err := codec.Marshal(snapshot())
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if bytes.Contains(data, []byte("roomplan")) {
		t.Fatalf("Expected the family to be hidden, got %s", data)
	}

	got, err := codec.Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if got.SessionID != "s-1" || got.Phase != domain.PhaseInitializing {
		t.Errorf("Unexpected snapshot: %+v", got)
	}
}

func TestEncryption_KeyRotation(t *testing.T) {
	oldKey, newKey := generateKey(t), generateKey(t)

	data, err := sealed(t, persistence.EncryptionConfig{ActiveKey: oldKey}).Marshal(snapshot())
	if err != nil {
		t.Fatal(err)
	}

	rotated := sealed(t, persistence.EncryptionConfig{ActiveKey: newKey, FallbackKeys: [][]byte{oldKey}})
	if _, err := rotated.Unmarshal(data); err != nil {
		t.Fatalf("Expected fallback key to decrypt, got %v", err)
	}

	unrelated := sealed(t, persistence.EncryptionConfig{ActiveKey: newKey})
	if _, err := unrelated.Unmarshal(data); err == nil {
		t.Fatal("Expected decryption with the wrong key to fail")
	}
}

func TestEncryption_RefusesPlainSnapshots(t *testing.T) {
	plain, err := persistence.JSON{}.Marshal(snapshot())
	if err != nil {
		t.Fatal(err)
	}
	_, err = sealed(t, persistence.EncryptionConfig{ActiveKey: generateKey(t)}).Unmarshal(plain)
	if !errors.Is(err, persistence.ErrNotEncrypted) {
		t.Fatalf("Expected ErrNotEncrypted, got %v", err)
	}
}

func TestNewEncryption_KeySize(t *testing.T) {
	if _, err := persistence.NewEncryption(persistence.EncryptionConfig{ActiveKey: []byte("short")}); err == nil {
		t.Fatal("Expected short active key to be rejected")
	}
	cfg := persistence.EncryptionConfig{ActiveKey: generateKey(t), FallbackKeys: [][]byte{[]byte("short")}}
	if _, err := persistence.NewEncryption(cfg); err == nil {
		t.Fatal("Expected short fallback key to be rejected")
	}
}

func TestConfigFromKeys(t *testing.T) {
	active, old := generateKey(t), generateKey(t)
	cfg, err := persistence.ConfigFromKeys([]string{hex.EncodeToString(active), hex.EncodeToString(old)})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(cfg.ActiveKey, active) || len(cfg.FallbackKeys) != 1 || !bytes.Equal(cfg.FallbackKeys[0], old) {
		t.Errorf("Unexpected config: %+v", cfg)
	}

	if _, err := persistence.ConfigFromKeys(nil); err == nil {
		t.Error("Expected an error without keys")
	}
	if _, err := persistence.ConfigFromKeys([]string{"not-a-key"}); err == nil {
		t.Error("Expected an error for a malformed key")
	}
}
