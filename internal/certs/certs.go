// Package certs parses X.509 certificates from raw files and ZIP archives
// and reduces them to the fields the report cares about.
package certs

import (
	"archive/zip"
	"bytes"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"io"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// Unknown is the placeholder for subject attributes the certificate lacks.
const Unknown = "Unknown"

var allowedExtensions = []string{".cer", ".crt", ".pem", ".der"}

type Info struct {
	CommonName   string
	Organization string
	SerialHex    string
	NotBefore    time.Time
	NotAfter     time.Time
	DaysLeft     int
}

// HasAllowedExtension reports whether the file name ends with one of the
// accepted certificate extensions (ZIP not included).
func HasAllowedExtension(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range allowedExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// AllowedExtensions returns the accepted certificate extensions for use in
// user-facing messages.
func AllowedExtensions() []string {
	return append([]string(nil), allowedExtensions...)
}

// Parse decodes a single certificate, trying PEM first and falling back to
// raw DER. DaysLeft is computed against now by calendar date, so a
// certificate expiring later today still counts as 0 days left.
func Parse(raw []byte, now time.Time) (*Info, error) {
	cert, err := decode(raw)
	if err != nil {
		return nil, fmt.Errorf("parse certificate: %w", err)
	}

	info := &Info{
		CommonName:   cert.Subject.CommonName,
		Organization: Unknown,
		SerialHex:    fmt.Sprintf("%X", cert.SerialNumber),
		NotBefore:    cert.NotBefore,
		NotAfter:     cert.NotAfter,
		DaysLeft:     daysBetween(now, cert.NotAfter),
	}
	if info.CommonName == "" {
		info.CommonName = Unknown
	}
	if len(cert.Subject.Organization) > 0 && cert.Subject.Organization[0] != "" {
		info.Organization = cert.Subject.Organization[0]
	}
	return info, nil
}

func decode(raw []byte) (*x509.Certificate, error) {
	if block, _ := pem.Decode(raw); block != nil {
		return x509.ParseCertificate(block.Bytes)
	}
	return x509.ParseCertificate(raw)
}

// Extract pulls certificate info out of an uploaded file. ZIP archives are
// walked for members with accepted extensions; anything unreadable is
// logged and skipped so one bad member does not sink the whole report.
func Extract(raw []byte, fileName string, now time.Time) []Info {
	lower := strings.ToLower(fileName)

	if strings.HasSuffix(lower, ".zip") {
		return extractZip(raw, fileName, now)
	}

	if HasAllowedExtension(fileName) {
		info, err := Parse(raw, now)
		if err != nil {
			log.Errorf("failed to parse certificate %s: %v", fileName, err)
			return nil
		}
		return []Info{*info}
	}
	return nil
}

func extractZip(raw []byte, fileName string, now time.Time) []Info {
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		log.Errorf("received a corrupted ZIP archive %s: %v", fileName, err)
		return nil
	}

	var infos []Info
	for _, member := range zr.File {
		if !HasAllowedExtension(member.Name) {
			continue
		}
		rc, err := member.Open()
		if err != nil {
			log.Errorf("cannot open ZIP member %s: %v", member.Name, err)
			continue
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			log.Errorf("cannot read ZIP member %s: %v", member.Name, err)
			continue
		}
		info, err := Parse(data, now)
		if err != nil {
			log.Errorf("failed to parse certificate %s: %v", member.Name, err)
			continue
		}
		infos = append(infos, *info)
	}
	return infos
}

func daysBetween(now, until time.Time) int {
	nowDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	untilDate := time.Date(until.Year(), until.Month(), until.Day(), 0, 0, 0, 0, time.UTC)
	return int(untilDate.Sub(nowDate).Hours() / 24)
}
