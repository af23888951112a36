package cli

import (
	"encoding/base64"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/tallyhq/tally/internal/config"
	"github.com/tallyhq/tally/pkg/logger"
)

// PairCommand prints a QR code another tally client can scan to point itself
// at the same server. The payload is tally://join?s=<base64url(server URL)>.
func PairCommand(cfg *config.Config) error {
	joinURL := fmt.Sprintf("tally://join?s=%s",
		base64.RawURLEncoding.EncodeToString([]byte(cfg.ServerURL)))

	logger.Infof("Scan this QR code with another tally client to share this server:")
	printQRCode(joinURL)
	logger.Infof("\nOr configure it manually:\n%s", joinURL)
	return nil
}

// printQRCode prints a QR code to the terminal as ASCII art.
func printQRCode(data string) {
	qr, err := qrcode.New(data, qrcode.Medium)
	if err != nil {
		logger.Warnf("Failed to generate QR code: %v", err)
		logger.Infof("Join URL: %s", data)
		return
	}
	fmt.Println(qr.ToSmallString(false))
}

// DecodeJoinURL parses a tally://join URL back into a server URL. Used when
// a pasted pairing payload configures the client.
func DecodeJoinURL(joinURL string) (string, error) {
	const prefix = "tally://join?s="
	if len(joinURL) <= len(prefix) || joinURL[:len(prefix)] != prefix {
		return "", fmt.Errorf("not a tally join URL: %q", joinURL)
	}
	decoded, err := base64.RawURLEncoding.DecodeString(joinURL[len(prefix):])
	if err != nil {
		return "", fmt.Errorf("malformed join URL: %w", err)
	}
	return string(decoded), nil
}
