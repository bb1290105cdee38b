package iyzico

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(serverURL string) *Client {
	c := NewClient(Config{
		BaseURL:   serverURL,
		APIKey:    "api-key",
		SecretKey: "secret-key",
	}, nil)
	c.randomKey = func() string { return "fixed-rnd" }
	return c
}

func TestClient_Cancel(t *testing.T) {
	t.Run("envoie la bonne requête et lit le succès", func(t *testing.T) {
		var gotPath, gotAuth, gotRnd string
		var gotBody map[string]string

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotAuth = r.Header.Get("Authorization")
			gotRnd = r.Header.Get("x-iyzi-rnd")
			_ = json.NewDecoder(r.Body).Decode(&gotBody)
			_, _ = w.Write([]byte(`{"status":"success","paymentId":"pay-1"}`))
		}))
		defer server.Close()

		client := newTestClient(server.URL)
		result, err := client.Cancel(context.Background(), CancelRequest{
			ConversationID: "conv-1",
			PaymentID:      "pay-1",
			IP:             "10.0.0.1",
		})
		if err != nil {
			t.Fatalf("erreur inattendue: %v", err)
		}

		if result.Status != StatusSuccess {
			t.Errorf("status attendu success, obtenu %q", result.Status)
		}
		if gotPath != "/payment/cancel" {
			t.Errorf("path attendu /payment/cancel, obtenu %q", gotPath)
		}
		if gotRnd != "fixed-rnd" {
			t.Errorf("x-iyzi-rnd attendu fixed-rnd, obtenu %q", gotRnd)
		}
		if gotBody["paymentId"] != "pay-1" || gotBody["conversationId"] != "conv-1" || gotBody["ip"] != "10.0.0.1" {
			t.Errorf("corps inattendu: %v", gotBody)
		}
		if !strings.HasPrefix(gotAuth, "IYZWSv2 ") {
			t.Fatalf("en-tête Authorization inattendu: %q", gotAuth)
		}

		// vérifie la signature HMAC reconstruite
		payload, _ := json.Marshal(gotBody)
		mac := hmac.New(sha256.New, []byte("secret-key"))
		mac.Write([]byte("fixed-rnd/payment/cancel"))
		mac.Write(payload)
		wantSig := hex.EncodeToString(mac.Sum(nil))

		decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(gotAuth, "IYZWSv2 "))
		if err != nil {
			t.Fatalf("base64 invalide: %v", err)
		}
		if !strings.Contains(string(decoded), "signature:"+wantSig) {
			t.Errorf("signature absente de %q", decoded)
		}
		if !strings.Contains(string(decoded), "apiKey:api-key") {
			t.Errorf("apiKey absente de %q", decoded)
		}
	})

	t.Run("refus métier renvoyé sans erreur", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"status":"failure","errorCode":"5002","errorMessage":"Payment cannot be cancelled"}`))
		}))
		defer server.Close()

		result, err := newTestClient(server.URL).Cancel(context.Background(), CancelRequest{PaymentID: "p"})
		if err != nil {
			t.Fatalf("un refus métier ne doit pas être une erreur: %v", err)
		}
		if result.Status != StatusFailure || result.ErrorMessage != "Payment cannot be cancelled" {
			t.Errorf("résultat inattendu: %+v", result)
		}
	})

	t.Run("erreur de transport remontée", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close() // ferme tout de suite

		if _, err := newTestClient(server.URL).Cancel(context.Background(), CancelRequest{PaymentID: "p"}); err == nil {
			t.Fatal("erreur de transport attendue")
		}
	})
}

func TestClient_Refund(t *testing.T) {
	t.Run("formate le montant avec un point et 2 décimales", func(t *testing.T) {
		var gotBody map[string]string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/payment/refund" {
				t.Errorf("path attendu /payment/refund, obtenu %q", r.URL.Path)
			}
			_ = json.NewDecoder(r.Body).Decode(&gotBody)
			_, _ = w.Write([]byte(`{"status":"success"}`))
		}))
		defer server.Close()

		result, err := newTestClient(server.URL).Refund(context.Background(), RefundRequest{
			ConversationID:       "conv-2",
			PaymentTransactionID: "tx-9",
			Price:                1500,
			IP:                   "10.0.0.2",
		})
		if err != nil {
			t.Fatalf("erreur inattendue: %v", err)
		}
		if result.Status != StatusSuccess {
			t.Errorf("status attendu success, obtenu %q", result.Status)
		}
		if gotBody["price"] != "1500.00" {
			t.Errorf("price attendu 1500.00, obtenu %q", gotBody["price"])
		}
		if gotBody["paymentTransactionId"] != "tx-9" {
			t.Errorf("paymentTransactionId attendu tx-9, obtenu %q", gotBody["paymentTransactionId"])
		}
	})

	t.Run("réponse sans status traitée comme un refus", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{}`))
		}))
		defer server.Close()

		result, err := newTestClient(server.URL).Refund(context.Background(), RefundRequest{PaymentTransactionID: "tx"})
		if err != nil {
			t.Fatalf("erreur inattendue: %v", err)
		}
		if result.Status != StatusFailure {
			t.Errorf("status attendu failure, obtenu %q", result.Status)
		}
	})
}
