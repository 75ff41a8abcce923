// Package webapp embeds the static Telegram mini-app page.
package webapp

import (
	_ "embed"
)

//go:embed webapp.html
var Page []byte
