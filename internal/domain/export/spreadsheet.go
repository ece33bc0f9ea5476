package export

import (
	"strings"

	"github.com/opdlog/opdlog/internal/domain/visit"
)

// cellEscaper entity-escapes the three characters that break HTML table
// cells. Spreadsheet software accepts the rest verbatim, commas included.
var cellEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

const workbookHead = `<html xmlns:o="urn:schemas-microsoft-com:office:office"
      xmlns:x="urn:schemas-microsoft-com:office:excel"
      xmlns="http://www.w3.org/TR/REC-html40">
<head>
<meta charset="UTF-8">
<!--[if gte mso 9]><xml>
 <x:ExcelWorkbook>
  <x:ExcelWorksheets>
   <x:ExcelWorksheet>
    <x:Name>OPD</x:Name>
    <x:WorksheetOptions><x:DisplayGridlines/></x:WorksheetOptions>
   </x:ExcelWorksheet>
  </x:ExcelWorksheets>
 </x:ExcelWorkbook>
</xml><![endif]-->
</head>
<body>
`

// ToSpreadsheetMarkup renders records as an HTML table wrapped in the
// Excel workbook namespace document, consumable as .xls by common
// spreadsheet software.
func ToSpreadsheetMarkup(records []visit.Record) string {
	var b strings.Builder
	b.WriteString(workbookHead)
	b.WriteString(`<table border="1"><tr>`)
	for _, h := range Header {
		b.WriteString("<th>")
		b.WriteString(cellEscaper.Replace(h))
		b.WriteString("</th>")
	}
	b.WriteString("</tr>")
	for _, rec := range records {
		b.WriteString("<tr>")
		for _, cell := range cellValues(rec) {
			b.WriteString("<td>")
			b.WriteString(cellEscaper.Replace(cell))
			b.WriteString("</td>")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</table>\n</body>\n</html>")
	return b.String()
}
