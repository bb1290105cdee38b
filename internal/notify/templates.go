package notify

import (
	"fmt"

	"fusionmarkt_backend/internal/models"
	"fusionmarkt_backend/internal/orders"
)

// Emails transactionnels en turc, même gabarit HTML que le reste de la
// boutique.

func statusChangedEmail(o *models.Order) (subject, body string) {
	label := orders.StatusLabel(o.Status)
	subject = fmt.Sprintf("Siparişiniz %s - %s", label, o.OrderNumber)

	detail := ""
	switch o.Status {
	case models.OrderStatusShipped:
		if o.TrackingNumber != "" {
			carrier := o.CarrierName
			if carrier == "" {
				carrier = "Kargo"
			}
			detail = fmt.Sprintf(`<p><strong>%s</strong> takip numaranız: <strong>%s</strong></p>`, carrier, o.TrackingNumber)
		}
	case models.OrderStatusCancelled, models.OrderStatusRefunded:
		detail = `<p>Ödemeniz iade sürecine alınmıştır. Tutar 3-7 iş günü içinde hesabınıza yansıyacaktır.</p>`
	}

	body = fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1f2937; max-width: 600px; margin: 0 auto;">
	<div style="background: #111827; color: #fff; padding: 24px; text-align: center;">
		<h1 style="margin: 0;">FusionMarkt</h1>
	</div>
	<div style="padding: 24px;">
		<h2>Sipariş Durumu Güncellendi</h2>
		<p>Merhaba%s,</p>
		<p><strong>%s</strong> numaralı siparişinizin durumu: <strong style="color: #2563eb;">%s</strong></p>
		%s
		<p style="color: #6b7280; font-size: 13px;">Sorularınız için bu e-postayı yanıtlayabilirsiniz.</p>
	</div>
</body>
</html>`, customerGreeting(o), o.OrderNumber, label, detail)

	return subject, body
}

func paymentConfirmedEmail(o *models.Order) (subject, body string) {
	subject = fmt.Sprintf("Ödemeniz Alındı - %s", o.OrderNumber)
	body = fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1f2937; max-width: 600px; margin: 0 auto;">
	<div style="background: #111827; color: #fff; padding: 24px; text-align: center;">
		<h1 style="margin: 0;">FusionMarkt</h1>
	</div>
	<div style="padding: 24px;">
		<h2>Ödemeniz Onaylandı</h2>
		<p>Merhaba%s,</p>
		<p><strong>%s</strong> numaralı siparişiniz için <strong>%.2f TL</strong> tutarındaki ödemeniz alınmıştır.</p>
		<p>Siparişiniz en kısa sürede hazırlanacaktır.</p>
		<p style="color: #6b7280; font-size: 13px;">Sorularınız için bu e-postayı yanıtlayabilirsiniz.</p>
	</div>
</body>
</html>`, customerGreeting(o), o.OrderNumber, o.Total)

	return subject, body
}

var serviceRequestLabels = map[string]string{
	models.ServiceRequestOpen:     "Alındı",
	models.ServiceRequestInReview: "İnceleniyor",
	models.ServiceRequestApproved: "Onaylandı",
	models.ServiceRequestRejected: "Reddedildi",
	models.ServiceRequestClosed:   "Kapatıldı",
}

func serviceRequestEmail(req *models.ServiceRequest) (subject, body string) {
	label, ok := serviceRequestLabels[req.Status]
	if !ok {
		label = req.Status
	}
	subject = fmt.Sprintf("Talebiniz %s - %s", label, req.OrderNumber)

	reply := ""
	if req.AdminReply != "" {
		reply = fmt.Sprintf(`<div style="background: #f3f4f6; padding: 16px; border-radius: 8px;"><p style="margin: 0;">%s</p></div>`, req.AdminReply)
	}

	body = fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1f2937; max-width: 600px; margin: 0 auto;">
	<div style="background: #111827; color: #fff; padding: 24px; text-align: center;">
		<h1 style="margin: 0;">FusionMarkt</h1>
	</div>
	<div style="padding: 24px;">
		<h2>Destek Talebiniz Güncellendi</h2>
		<p>Merhaba,</p>
		<p><strong>%s</strong> numaralı siparişinize ait "%s" konulu talebinizin durumu: <strong style="color: #2563eb;">%s</strong></p>
		%s
		<p style="color: #6b7280; font-size: 13px;">Sorularınız için bu e-postayı yanıtlayabilirsiniz.</p>
	</div>
</body>
</html>`, req.OrderNumber, req.Subject, label, reply)

	return subject, body
}

func customerGreeting(o *models.Order) string {
	if o.CustomerName == "" {
		return ""
	}
	return " " + o.CustomerName
}
