package gateway

import "testing"

func TestSignRegressionVector(t *testing.T) {
	body := []byte(`{"shopId":"shop-1","productId":"prod-9","consumerId":"42","orderId":"ord-123"}`)
	got := Sign("test-secret", body)
	want := "0c37967716ec983302d410093d8d84f826fe2eac3a25ef19a71f9e43e542144b"
	if got != want {
		t.Fatalf("Sign = %s, want %s", got, want)
	}
}

func TestSignDependsOnFieldOrder(t *testing.T) {
	// Same logical payload with consumerId and productId swapped: the
	// signature covers the literal bytes and must change.
	a := []byte(`{"shopId":"shop-1","productId":"prod-9","consumerId":"42","orderId":"ord-123"}`)
	b := []byte(`{"shopId":"shop-1","consumerId":"42","productId":"prod-9","orderId":"ord-123"}`)
	if Sign("test-secret", a) == Sign("test-secret", b) {
		t.Fatal("signature must differ when field order differs")
	}
	if got, want := Sign("test-secret", b), "d2801dd8975e6b85ef9e82702780204b5bd21226113c33c98a5f3944642e5b3b"; got != want {
		t.Fatalf("Sign = %s, want %s", got, want)
	}
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"shopId":"shop-1"}`)
	sig := Sign("test-secret", body)
	if sig != "ce47ba8ab1d4c77c3f9e88d4827daaae3ac2b85c894c0fff84ec7d91175e45be" {
		t.Fatalf("unexpected signature %s", sig)
	}
	if !VerifySignature("test-secret", body, sig) {
		t.Fatal("valid signature rejected")
	}
	if VerifySignature("other-secret", body, sig) {
		t.Fatal("signature verified under wrong secret")
	}
	if VerifySignature("test-secret", []byte(`{"shopId":"shop-2"}`), sig) {
		t.Fatal("signature verified for different body")
	}
	if VerifySignature("test-secret", body, "zz-not-hex") {
		t.Fatal("malformed hex accepted")
	}
}

func TestPayloadBuilderPreservesOrder(t *testing.T) {
	body := newPayload().
		Str("shopId", "shop-1").
		Str("productId", "prod-9").
		Str("consumerId", "42").
		Str("orderId", "ord-123").
		Bytes()
	want := `{"shopId":"shop-1","productId":"prod-9","consumerId":"42","orderId":"ord-123"}`
	if string(body) != want {
		t.Fatalf("payload = %s, want %s", body, want)
	}
}

func TestPayloadBuilderOptionalAndEscaping(t *testing.T) {
	body := newPayload().
		Str("shopId", `sh"op`).
		StrOpt("phone", "").
		StrOpt("email", "a@b.c").
		Bytes()
	want := `{"shopId":"sh\"op","email":"a@b.c"}`
	if string(body) != want {
		t.Fatalf("payload = %s, want %s", body, want)
	}
}

func TestPayloadBuilderEmpty(t *testing.T) {
	if got := string(newPayload().Bytes()); got != "{}" {
		t.Fatalf("payload = %s, want {}", got)
	}
}
