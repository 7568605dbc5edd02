package password

import "testing"

func TestHashVerifyRoundTrip(t *testing.T) {
	h, err := Hash(Default, "password")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	// Hash con formato PHC completo: el verify tiene que aceptar su propia salida.
	if !Verify("password", h) {
		t.Fatalf("freshly minted hash did not verify: %q", h)
	}
	if Verify("not-the-password", h) {
		t.Fatal("wrong password verified")
	}
}

func TestHash_RejectsEmpty(t *testing.T) {
	if _, err := Hash(Default, ""); err == nil {
		t.Fatal("empty password should not hash")
	}
}

func TestVerify_MalformedPHC(t *testing.T) {
	bad := []string{
		"",
		"plaintext",
		"$argon2id$v=19$m=65536,t=3,p=1$onlyonesegment",
		"$argon2id$v=18$m=65536,t=3,p=1$c2FsdA$ZGs",          // versión equivocada
		"$argon2i$v=19$m=65536,t=3,p=1$c2FsdA$ZGs",           // variante equivocada
		"$argon2id$v=19$m=65536,t=3,p=1$!!notb64!!$ZGs",      // salt inválido
		"$argon2id$v=19$m=65536,t=3,p=1$c2FsdA$!!notb64!!",   // dk inválido
		"$argon2id$v=19$m=0,t=0,p=0$c2FsdA$ZGs",              // params fuera de rango
		"$argon2id$v=19$m=65536,t=3,p=1$c2FsdA$ZGs$extra",    // segmento de más
	}
	for _, phc := range bad {
		if Verify("password", phc) {
			t.Fatalf("malformed PHC verified: %q", phc)
		}
	}
}
