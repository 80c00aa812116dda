package printing

import "strings"

const (
	exportFilePrefix    = "Solicitud_"
	exportFileExtension = ".pdf"
	defaultExportName   = "documento"
)

// ExportFileName derives the download name from the worker's name.
// Every character outside [A-Za-z0-9] becomes one underscore, so accented
// letters are not transliterated: "Juan Pérez" gives "Solicitud_Juan_P_rez.pdf".
func ExportFileName(workerName string) string {
	if workerName == "" {
		return exportFilePrefix + defaultExportName + exportFileExtension
	}

	var b strings.Builder
	b.Grow(len(exportFilePrefix) + len(workerName) + len(exportFileExtension))
	b.WriteString(exportFilePrefix)
	for _, r := range workerName {
		if isASCIIAlnum(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	b.WriteString(exportFileExtension)
	return b.String()
}

func isASCIIAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
