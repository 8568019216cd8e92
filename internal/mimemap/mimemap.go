// Package mimemap holds the MIME-type tables spec §6 defines: Drive-native
// format detection, Drive-link derivation, and the export-MIME map used by
// DriveClient.Download. Shared by internal/drive, internal/vectorstore, and
// internal/ingest so the three agree on exactly one mapping.
package mimemap

const (
	NativeDocument     = "application/vnd.google-apps.document"
	NativeSpreadsheet  = "application/vnd.google-apps.spreadsheet"
	NativePresentation = "application/vnd.google-apps.presentation"
	NativeFolder       = "application/vnd.google-apps.folder"

	ExportDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	ExportXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ExportPDF  = "application/pdf"
)

// IsNativeDocument reports whether mime is a Drive-native document.
func IsNativeDocument(mime string) bool { return mime == NativeDocument }

// IsNativeSpreadsheet reports whether mime is a Drive-native spreadsheet.
func IsNativeSpreadsheet(mime string) bool { return mime == NativeSpreadsheet }

// IsNativePresentation reports whether mime is a Drive-native presentation.
func IsNativePresentation(mime string) bool { return mime == NativePresentation }

// IsNativeFolder reports whether mime identifies a Drive folder.
func IsNativeFolder(mime string) bool { return mime == NativeFolder }

// ExportMimeFor returns the export MIME DriveClient.Download requests for a
// native-format source, and ok=false for any other MIME (downloaded as-is).
func ExportMimeFor(mime string) (exportMime string, ok bool) {
	switch mime {
	case NativeDocument:
		return ExportDOCX, true
	case NativeSpreadsheet:
		return ExportXLSX, true
	case NativePresentation:
		return ExportPDF, true
	default:
		return "", false
	}
}

// ExtensionFor returns the file extension a downloaded copy of mime should
// use, following the export-MIME map for native formats.
func ExtensionFor(mime string) string {
	switch mime {
	case NativeDocument:
		return ".docx"
	case NativeSpreadsheet:
		return ".xlsx"
	case NativePresentation:
		return ".pdf"
	case ExportDOCX:
		return ".docx"
	case ExportXLSX:
		return ".xlsx"
	case ExportPDF:
		return ".pdf"
	default:
		return ""
	}
}

// GoogleLink derives a Drive/Docs URL from (id, mimeType) per spec §6.
func GoogleLink(id, mime string) string {
	switch mime {
	case NativeDocument:
		return "https://docs.google.com/document/d/" + id
	case NativeSpreadsheet:
		return "https://docs.google.com/spreadsheets/d/" + id
	case NativePresentation:
		return "https://docs.google.com/presentation/d/" + id
	default:
		return "https://drive.google.com/file/d/" + id
	}
}
