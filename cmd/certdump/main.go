// Manual check: parse certificate files given on the command line and
// print what the bot would report for them.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"certsentry/internal/certs"
	"certsentry/internal/report"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: certdump <file.cer|file.pem|bundle.zip> ...")
		os.Exit(2)
	}

	now := time.Now()
	var all []certs.Info

	for _, path := range os.Args[1:] {
		raw, err := os.ReadFile(path)
		if err != nil {
			fmt.Printf("⛔ %s: %v\n", path, err)
			continue
		}

		infos := certs.Extract(raw, filepath.Base(path), now)
		if len(infos) == 0 {
			fmt.Printf("⛔ %s: no certificates found\n", path)
			continue
		}

		for _, ci := range infos {
			fmt.Printf("✅ %s | %s | serial %s | until %s | %d days left\n",
				ci.CommonName, ci.Organization, ci.SerialHex,
				ci.NotAfter.Format("02.01.2006"), ci.DaysLeft)
		}
		all = append(all, infos...)
	}

	if len(all) > 0 {
		fmt.Println()
		fmt.Println(report.Summary(all))
	}
}
