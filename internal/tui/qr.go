package tui

import (
	"fmt"
	"net/url"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// pairingURL joins the pairing base with the token and display number.
func pairingURL(base, token, displayNumber string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return "", fmt.Errorf("parse pairing base: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	q.Set("number", displayNumber)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// renderQR renders content as half-block terminal art.
func renderQR(content string) (string, error) {
	code, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("encode qr: %w", err)
	}
	return strings.TrimRight(code.ToSmallString(false), "\n"), nil
}
