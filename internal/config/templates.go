package config

import (
	"fmt"
	"os"
)

// Template returns the starter config file content.
func Template() string {
	return clientTemplate
}

// WriteTemplate writes the starter config, refusing to clobber an existing
// file unless told to.
func WriteTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(clientTemplate), 0o600)
}

const clientTemplate = `url = "https://banking.example.com/fints"
bank_code = "12345678"
user_id = "username"
# Read the PIN from this environment variable instead of the file.
pin_env = "FINTS_PIN"
product_id = "fints-cli"

# max_pages = 100
# timeout_seconds = 30
# max_retries = 3
# retry_delay_ms = 1000

[decoupled]
# wait_before_first_ms = 2000
# wait_between_ms = 2000
# max_requests = 60
# total_timeout_seconds = 300
`
