package internal

import (
	"fmt"
	"log"
	"os"
	"regexp"
	"runtime"
	"sort"
	"strings"

	"github.com/earthboundkid/versioninfo/v2"
	"github.com/rm-hull/border-filters/internal/codec"
	"github.com/rm-hull/border-filters/internal/convolve"
	"github.com/rm-hull/border-filters/internal/device"
)

func ShowVersion() {
	log.Printf("Version: %s\n", versioninfo.Short())
}

// Banner logs the build, engine, device and codec capabilities a run uses.
func Banner(engine convolve.Engine, dev *device.Device) {
	ShowVersion()
	log.Printf("Go: %s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	log.Printf("Engine: %s", engine.Name())

	limit := "unlimited"
	if dev.MemoryLimit() > 0 {
		limit = formatBytes(dev.MemoryLimit())
	}
	log.Printf("Device: %s (pitch alignment=%d, memory limit=%s)", dev.Name(), dev.PitchAlignment(), limit)

	caps := make([]string, 0, len(codec.Formats()))
	for _, f := range codec.Formats() {
		mode := "r"
		if f.SupportsWriting() {
			mode += "w"
		}
		caps = append(caps, f.String()+"("+mode+")")
	}
	log.Printf("Formats: %s", strings.Join(caps, " "))
}

// EnvironmentVars logs the environment variables starting with one of
// prefixes, masking anything that looks like a secret.
func EnvironmentVars(prefixes ...string) {
	log.Println("Environment variables")

	sensitiveRegex := regexp.MustCompile(`(?i)(PASSWORD|API_KEY|ACCESS_KEY|SECRET|TOKEN)`)
	environ := os.Environ()
	sort.Strings(environ)

	for _, entry := range environ {
		kv := strings.SplitN(entry, "=", 2)
		if !hasAnyPrefix(kv[0], prefixes) {
			continue
		}
		if sensitiveRegex.MatchString(kv[0]) {
			log.Printf("  %s: ********\n", kv[0])
		} else {
			log.Printf("  %s: %s\n", kv[0], kv[1])
		}
	}
}

func hasAnyPrefix(s string, prefixes []string) bool {
	if len(prefixes) == 0 {
		return true
	}
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%d %ciB", n/div, "KMGTPE"[exp])
}
