package orders

import (
	"encoding/json"
	"testing"
)

func TestNormalizeRefundPrice(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		total   float64
		want    float64
		wantErr bool
	}{
		{name: "décimal simple", raw: `"45.50"`, total: 50.00, want: 45.50},
		{name: "virgule décimale", raw: `"45,50"`, total: 50.00, want: 45.50},
		{name: "kuruş sur commande de 1500", raw: `"150000"`, total: 1500.00, want: 1500.00},
		{name: "kuruş avec virgule", raw: `"150000,00"`, total: 1500.00, want: 1500.00},
		{name: "nombre JSON brut", raw: `120.5`, total: 200.00, want: 120.50},
		{name: "juste sous le seuil kuruş", raw: `"15000"`, total: 1500.00, want: 15000.00},
		{name: "arrondi à 2 décimales", raw: `"45.555"`, total: 50.00, want: 45.56},
		{name: "illisible", raw: `"n/a"`, total: 50.00, wantErr: true},
		{name: "zéro", raw: `"0"`, total: 50.00, wantErr: true},
		{name: "négatif", raw: `"-12.00"`, total: 50.00, wantErr: true},
		{name: "vide", raw: `""`, total: 50.00, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizeRefundPrice(json.RawMessage(tc.raw), tc.total)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("erreur attendue pour %q, obtenu %v", tc.raw, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("erreur inattendue pour %q: %v", tc.raw, err)
			}
			if got != tc.want {
				t.Errorf("%q: %v attendu, obtenu %v", tc.raw, tc.want, got)
			}
		})
	}
}
