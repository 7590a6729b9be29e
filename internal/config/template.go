package config

import (
	"errors"
	"fmt"
	"os"
)

// ErrTemplateExists is returned by WriteTemplate when the destination file
// already exists and force was not set.
var ErrTemplateExists = errors.New("configuration file already exists")

// Template is the scaffolded datasentinel.yml written by `sentinel init`.
const Template = `# datasentinel.yml
#
# Data quality validation and audit capture configuration.

audit:
  db_path: datasentinel.db
  output_dir: datasentinel_output

# notifiers:
#   on_fail:
#     - type: log
#     - type: webhook
#       url: https://hooks.example.com/data-quality

datasets:
  orders:
    aggregation: all-must-pass   # all-must-pass | majority | weighted-threshold
    blocking: true               # a failing verdict aborts the pipeline run
    rules:
      - id: id-not-null
        kind: not-null
        column: id
        severity: error
      - id: amount-non-negative
        kind: range
        column: amount
        severity: error
        parameters:
          min: 0
      - id: currency-known
        kind: set-membership
        column: currency
        severity: warning
        mode: offline            # online | offline | both (default both)
        parameters:
          values: [USD, EUR, GBP]
`

// WriteTemplate scaffolds the configuration file. An existing file is only
// overwritten with force.
func WriteTemplate(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%w at %q, use --force to overwrite", ErrTemplateExists, path)
	}
	if err := os.WriteFile(path, []byte(Template), 0644); err != nil {
		return fmt.Errorf("failed to write template: %w", err)
	}
	return nil
}
