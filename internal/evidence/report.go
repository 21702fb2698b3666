package evidence

import (
	"fmt"
	"strings"

	"wisefido-fallcam/internal/models"
)

const reportTimeLayout = "2006-01-02 15:04:05"

var riskDisplay = map[string]string{
	models.RiskHigh:   "HIGH",
	models.RiskMedium: "MEDIUM",
	models.RiskLow:    "LOW",
}

// Title 报警标题
func Title(ev models.FallEvent) string {
	return "[URGENT] Fall detected - " + ev.Timestamp.Format(reportTimeLayout)
}

// Description 报警正文（发送到 CMS 的 text 字段）
func Description(ev models.FallEvent, model string) string {
	a := ev.Analysis
	var b strings.Builder

	b.WriteString("Fall Detection Report\n\n")
	fmt.Fprintf(&b, "Time: %s\n\n", ev.Timestamp.Format(reportTimeLayout))
	b.WriteString("Detection:\n")
	fmt.Fprintf(&b, "- Person confidence: %.2f\n", ev.Confidence)
	fmt.Fprintf(&b, "- Fall score: %.2f\n\n", a.FallScore)
	b.WriteString("Analysis:\n")
	fmt.Fprintf(&b, "- Bounding box aspect ratio: %.2f\n", a.Details.AspectRatio)
	fmt.Fprintf(&b, "- Body angle: %.1f deg\n", a.Details.BodyAngle)
	fmt.Fprintf(&b, "- Position ratio: %.2f\n\n", a.Details.HeightRatio)
	fmt.Fprintf(&b, "Reason: %s\n\n", strings.TrimSpace(a.Reason))
	fmt.Fprintf(&b, "Risk: %s", riskDisplay[models.RiskLevel(a.FallScore)])
	if model != "" {
		fmt.Fprintf(&b, "\n\nModel: %s", model)
	}

	return b.String()
}

// BuildAlert 组装发送给通知端的报警
func BuildAlert(deviceID string, ev models.FallEvent, imagePath, videoPath, model string) models.Alert {
	return models.Alert{
		DeviceID:  deviceID,
		Title:     Title(ev),
		Body:      Description(ev, model),
		ImagePath: imagePath,
		VideoPath: videoPath,
		RiskLevel: models.RiskLevel(ev.Analysis.FallScore),
		Event:     ev,
	}
}
