package utils

import (
	"strings"
	"testing"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("S3cret!Parola")
	if err != nil {
		t.Fatalf("erreur inattendue: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Fatalf("format de hash inattendu: %s", hash)
	}

	ok, err := VerifyPassword("S3cret!Parola", hash)
	if err != nil {
		t.Fatalf("erreur inattendue: %v", err)
	}
	if !ok {
		t.Error("le bon mot de passe doit être accepté")
	}

	ok, err = VerifyPassword("mauvais", hash)
	if err != nil {
		t.Fatalf("erreur inattendue: %v", err)
	}
	if ok {
		t.Error("un mauvais mot de passe doit être refusé")
	}
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	for _, h := range []string{"", "pasunhash", "$2a$10$abcdef"} {
		if ok, err := VerifyPassword("x", h); err == nil || ok {
			t.Errorf("hash %q: erreur attendue", h)
		}
	}
}

func TestHashPassword_UniqueSalt(t *testing.T) {
	h1, _ := HashPassword("aynı")
	h2, _ := HashPassword("aynı")
	if h1 == h2 {
		t.Error("deux hash du même mot de passe doivent différer (salt aléatoire)")
	}
}
