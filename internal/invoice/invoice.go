package invoice

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"html/template"
	"log"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/minio/minio-go/v7"
	"github.com/skip2/go-qrcode"

	"fusionmarkt_backend/internal/models"
	"fusionmarkt_backend/internal/orders"
)

// Generator rend la facture d'une commande en PDF et l'archive dans MinIO.
type Generator struct {
	minioClient *minio.Client
	bucket      string
	trackingURL string // base de l'URL encodée dans le QR
}

func NewGenerator(minioClient *minio.Client, bucket, trackingURL string) *Generator {
	return &Generator{minioClient: minioClient, bucket: bucket, trackingURL: trackingURL}
}

// orderQR encode l'URL de suivi de la commande, en base64 pour <img src>.
func orderQR(trackingURL, orderNumber string) (string, error) {
	png, err := qrcode.Encode(trackingURL+"/"+orderNumber, qrcode.Medium, 256)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

var invoiceTmpl = template.Must(template.New("invoice").Funcs(template.FuncMap{
	"mul": func(price float64, qty int) float64 { return price * float64(qty) },
}).Parse(`<!DOCTYPE html>
<html lang="tr">
<head>
<meta charset="utf-8">
<style>
	body { font-family: Arial, sans-serif; color: #1f2937; margin: 40px; }
	h1 { color: #111827; }
	table { width: 100%; border-collapse: collapse; margin-top: 24px; }
	th, td { border-bottom: 1px solid #e5e7eb; padding: 8px; text-align: left; }
	.totals td { border: none; padding: 4px 8px; }
	.totals tr:last-child td { font-weight: bold; border-top: 2px solid #111827; }
	.qr { position: absolute; top: 40px; right: 40px; }
</style>
</head>
<body>
	<img class="qr" src="{{.QR}}" width="96" height="96">
	<h1>FusionMarkt</h1>
	<p><strong>Fatura No:</strong> {{.Order.OrderNumber}}<br>
	Tarih: {{.Date}}<br>
	Müşteri: {{.Order.CustomerName}}<br>
	E-posta: {{.Order.BillingEmail}}</p>

	<table>
		<tr><th>Ürün</th><th>Adet</th><th>Birim Fiyat</th><th>Tutar</th></tr>
		{{range .Order.Items}}
		<tr>
			<td>{{.ProductName}}</td>
			<td>{{.Quantity}}</td>
			<td>{{printf "%.2f" .Price}} TL</td>
			<td>{{printf "%.2f" (mul .Price .Quantity)}} TL</td>
		</tr>
		{{end}}
	</table>

	<table class="totals" style="width: 40%; margin-left: 60%;">
		<tr><td>Ara Toplam</td><td>{{printf "%.2f" .Order.Subtotal}} TL</td></tr>
		{{if gt .Order.Discount 0.0}}<tr><td>İndirim</td><td>-{{printf "%.2f" .Order.Discount}} TL</td></tr>{{end}}
		<tr><td>Kargo</td><td>{{printf "%.2f" .Order.ShippingCost}} TL</td></tr>
		<tr><td>Genel Toplam</td><td>{{printf "%.2f" .Order.Total}} TL</td></tr>
	</table>

	<p style="margin-top: 48px; color: #6b7280; font-size: 12px;">
		Ödeme durumu: {{.PaymentLabel}}. Bizi tercih ettiğiniz için teşekkür ederiz.
	</p>
</body>
</html>`))

func renderHTML(o *models.Order, trackingURL string) (string, error) {
	qr, err := orderQR(trackingURL, o.OrderNumber)
	if err != nil {
		return "", fmt.Errorf("génération QR: %w", err)
	}

	var buf bytes.Buffer
	err = invoiceTmpl.Execute(&buf, map[string]any{
		"Order":        o,
		"QR":           template.URL(qr),
		"Date":         o.CreatedAt.Format("02/01/2006"),
		"PaymentLabel": orders.PaymentStatusLabel(o.PaymentStatus),
	})
	if err != nil {
		return "", fmt.Errorf("rendu template facture: %w", err)
	}
	return buf.String(), nil
}

// RenderPDF imprime la facture via Chrome headless.
func (g *Generator) RenderPDF(ctx context.Context, o *models.Order) ([]byte, error) {
	html, err := renderHTML(o, g.trackingURL)
	if err != nil {
		return nil, err
	}

	ctx, cancel := chromedp.NewContext(ctx)
	defer cancel()
	ctx, cancel = context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	dataURL := "data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte(html))

	var pdf []byte
	err = chromedp.Run(ctx,
		chromedp.Navigate(dataURL),
		chromedp.WaitVisible("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdf, _, err = page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("impression PDF de %s: %w", o.OrderNumber, err)
	}
	return pdf, nil
}

// Archive dépose le PDF dans MinIO et retourne le chemin objet.
func (g *Generator) Archive(ctx context.Context, o *models.Order, pdf []byte) (string, error) {
	objectName := fmt.Sprintf("invoices/%s/%s.pdf", o.CreatedAt.Format("2006/01"), o.OrderNumber)

	_, err := g.minioClient.PutObject(ctx, g.bucket, objectName,
		bytes.NewReader(pdf), int64(len(pdf)),
		minio.PutObjectOptions{ContentType: "application/pdf"})
	if err != nil {
		return "", fmt.Errorf("archivage facture %s: %w", o.OrderNumber, err)
	}

	log.Printf("🧾 Facture %s archivée: %s", o.OrderNumber, objectName)
	return objectName, nil
}

// Generate rend puis archive ; retourne le PDF et son chemin d'archive.
func (g *Generator) Generate(ctx context.Context, o *models.Order) ([]byte, string, error) {
	pdf, err := g.RenderPDF(ctx, o)
	if err != nil {
		return nil, "", err
	}
	objectName, err := g.Archive(ctx, o, pdf)
	if err != nil {
		// le PDF est utilisable même si l'archivage échoue
		log.Printf("⚠️ Archivage facture %s: %v", o.OrderNumber, err)
		return pdf, "", nil
	}
	return pdf, objectName, nil
}
