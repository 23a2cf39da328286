// Package dotenv loads .env files as an import side effect, so integration
// tests and tools pick up NSEOPT_* settings without calling confkit first.
package dotenv

import "nseopt/pkg/confkit"

func init() {
	confkit.LoadDotenvOnce()
}
