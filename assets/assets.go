// Package assets holds the files embedded in the binaries: email templates and
// the list of common passwords rejected by the password policy.
package assets

import "embed"

//go:embed templates/email/* templates/email/_base.txt templates/email/_base.gohtml common-passwords.txt
var FS embed.FS
