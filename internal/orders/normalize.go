package orders

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// NormalizeRefundPrice convertit un montant de transaction enregistré (string
// avec virgule ou point, ou nombre JSON) en montant de remboursement à
// envoyer à iyzico. Si la valeur dépasse 10x le total de la commande, elle
// est considérée comme exprimée en kuruş et divisée par 100. Arrondi à 2
// décimales.
func NormalizeRefundPrice(raw json.RawMessage, orderTotal float64) (float64, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return 0, fmt.Errorf("montant absent")
	}

	// montant sous forme de string JSON : on retire les guillemets
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))

	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("montant illisible %q: %v", s, err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("montant non positif: %v", value)
	}

	// montant probablement en kuruş (unités mineures)
	if orderTotal > 0 && value > orderTotal*10 {
		value = value / 100
	}

	return math.Round(value*100) / 100, nil
}
