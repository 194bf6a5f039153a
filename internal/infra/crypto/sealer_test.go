package crypto

import (
	"encoding/base64"
	"strings"
	"testing"
)

func testKey() string {
	return base64.StdEncoding.EncodeToString([]byte(strings.Repeat("k", 32)))
}

func TestSealOpenRoundTrip(t *testing.T) {
	sealer, err := NewSealer(testKey())
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	sealed, err := sealer.Seal("Hi Jane, impressive work at Tech Corp!")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if sealed == "Hi Jane, impressive work at Tech Corp!" {
		t.Fatalf("ожидали шифротекст, получили открытый текст")
	}
	opened, err := sealer.Open(sealed)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if opened != "Hi Jane, impressive work at Tech Corp!" {
		t.Fatalf("расшифрованный текст не совпал: %q", opened)
	}
}

func TestNewSealerEmptyKey(t *testing.T) {
	sealer, err := NewSealer("")
	if err != nil {
		t.Fatalf("пустой ключ не должен быть ошибкой: %v", err)
	}
	if sealer != nil {
		t.Fatalf("ожидали nil sealer при пустом ключе")
	}
}

func TestNewSealerBadKeyLength(t *testing.T) {
	short := base64.StdEncoding.EncodeToString([]byte("short"))
	if _, err := NewSealer(short); err == nil {
		t.Fatalf("ожидали ошибку для короткого ключа")
	}
}

func TestOpenCorrupted(t *testing.T) {
	sealer, err := NewSealer(testKey())
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if _, err := sealer.Open("bm90LXZhbGlk"); err == nil {
		t.Fatalf("ожидали ошибку для повреждённого шифротекста")
	}
}
