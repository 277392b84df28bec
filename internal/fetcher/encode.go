package fetcher

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/voyagen/livecatalog/internal/models"
)

// attrReplacer makes a value safe inside a quoted #EXTINF attribute.
var attrReplacer = strings.NewReplacer(`"`, "'", "\r\n", " ", "\r", " ", "\n", " ")

// lineReplacer keeps a name or URL on its own line.
var lineReplacer = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// WriteM3U encodes channels as an M3U playlist that ParseM3U reads back.
// Attributes are written only when set. Double quotes in attribute values
// become single quotes and line breaks become spaces.
func WriteM3U(w io.Writer, channels []models.Channel) error {
	buf := &bytes.Buffer{}
	buf.WriteString(headerPrefix + "\n")
	for _, ch := range channels {
		attrs := bytes.Buffer{}
		if ch.EPGID != "" {
			fmt.Fprintf(&attrs, ` tvg-id="%s"`, attrReplacer.Replace(ch.EPGID))
		}
		if ch.Logo != "" {
			fmt.Fprintf(&attrs, ` tvg-logo="%s"`, attrReplacer.Replace(ch.Logo))
		}
		if ch.Group != "" {
			fmt.Fprintf(&attrs, ` group-title="%s"`, attrReplacer.Replace(ch.Group))
		}
		fmt.Fprintf(buf, "%s-1%s,%s\n", extinfPrefix, attrs.String(), lineReplacer.Replace(ch.Name))
		buf.WriteString(lineReplacer.Replace(ch.URL) + "\n")
	}
	_, err := io.Copy(w, buf)
	return err
}
