package knowledge

// Seed returns the built-in knowledge set. IDs are left empty; the store
// assigns them on insert so the same data works for both the memory and the
// Postgres backends.
func Seed() []Entry {
	entries := make([]Entry, 0, len(seedFunctions)+len(seedFeatures)+len(seedVBATemplates)+len(seedPractices)+len(seedFAQ))
	entries = append(entries, seedFunctions...)
	entries = append(entries, seedFeatures...)
	entries = append(entries, seedVBATemplates...)
	entries = append(entries, seedPractices...)
	entries = append(entries, seedFAQ...)
	return entries
}

var seedFunctions = []Entry{
	{
		Kind: KindFunction, Category: CategoryMath, Name: "SUM",
		Description: "Adds all numbers in a range of cells.",
		Syntax:      "SUM(number1, [number2], ...)",
		Example:     "=SUM(A1:A10) adds the values in cells A1 through A10.",
		Keywords:    []string{"sum", "add", "total", "合計", "足し算", "sum関数"},
	},
	{
		Kind: KindFunction, Category: CategoryStats, Name: "AVERAGE",
		Description: "Returns the arithmetic mean of its arguments.",
		Syntax:      "AVERAGE(number1, [number2], ...)",
		Example:     "=AVERAGE(B2:B20) averages the values in B2:B20.",
		Keywords:    []string{"average", "mean", "平均", "average関数"},
	},
	{
		Kind: KindFunction, Category: CategoryStats, Name: "COUNT",
		Description: "Counts the number of cells that contain numbers.",
		Syntax:      "COUNT(value1, [value2], ...)",
		Example:     "=COUNT(A1:A100) counts numeric cells in A1:A100.",
		Keywords:    []string{"count", "カウント", "数える", "count関数"},
	},
	{
		Kind: KindFunction, Category: CategoryStats, Name: "COUNTA",
		Description: "Counts the number of cells that are not empty.",
		Syntax:      "COUNTA(value1, [value2], ...)",
		Example:     "=COUNTA(A:A) counts every non-empty cell in column A.",
		Keywords:    []string{"counta", "non-empty", "空白以外"},
	},
	{
		Kind: KindFunction, Category: CategoryLogical, Name: "IF",
		Description: "Returns one value if a condition is true and another if it is false.",
		Syntax:      "IF(logical_test, value_if_true, [value_if_false])",
		Example:     `=IF(C2>=60, "Pass", "Fail") labels scores of 60 or more as Pass.`,
		Keywords:    []string{"if", "condition", "conditional", "もし", "条件", "if関数"},
	},
	{
		Kind: KindFunction, Category: CategoryLogical, Name: "IFERROR",
		Description: "Returns a fallback value when a formula evaluates to an error.",
		Syntax:      "IFERROR(value, value_if_error)",
		Example:     `=IFERROR(A1/B1, 0) returns 0 instead of #DIV/0!.`,
		Keywords:    []string{"iferror", "error", "#n/a", "#div/0", "エラー"},
	},
	{
		Kind: KindFunction, Category: CategoryLookup, Name: "VLOOKUP",
		Description: "Looks up a value in the first column of a table and returns a value from another column in the same row.",
		Syntax:      "VLOOKUP(lookup_value, table_array, col_index_num, [range_lookup])",
		Example:     "=VLOOKUP(E2, A2:C100, 3, FALSE) finds E2 in column A and returns the matching column C value.",
		Keywords:    []string{"vlookup", "lookup", "検索", "ブイルックアップ", "vlookup関数"},
	},
	{
		Kind: KindFunction, Category: CategoryLookup, Name: "XLOOKUP",
		Description: "Searches a range and returns the item corresponding to the first match; the modern replacement for VLOOKUP.",
		Syntax:      "XLOOKUP(lookup_value, lookup_array, return_array, [if_not_found], [match_mode], [search_mode])",
		Example:     `=XLOOKUP(E2, A:A, C:C, "not found") looks E2 up in column A and returns column C.`,
		Keywords:    []string{"xlookup", "エックスルックアップ"},
	},
	{
		Kind: KindFunction, Category: CategoryLookup, Name: "INDEX",
		Description: "Returns the value of a cell at the intersection of a given row and column of a range.",
		Syntax:      "INDEX(array, row_num, [column_num])",
		Example:     "=INDEX(A1:C10, 2, 3) returns the value in C2.",
		Keywords:    []string{"index", "インデックス"},
	},
	{
		Kind: KindFunction, Category: CategoryLookup, Name: "MATCH",
		Description: "Returns the relative position of an item in a range that matches a value.",
		Syntax:      "MATCH(lookup_value, lookup_array, [match_type])",
		Example:     "=MATCH(42, A1:A10, 0) returns the position of 42 within A1:A10.",
		Keywords:    []string{"match", "position", "一致"},
	},
	{
		Kind: KindFunction, Category: CategoryMath, Name: "SUMIF",
		Description: "Adds the cells in a range that meet a single criterion.",
		Syntax:      "SUMIF(range, criteria, [sum_range])",
		Example:     `=SUMIF(A2:A100, "East", B2:B100) sums column B where column A equals East.`,
		Keywords:    []string{"sumif", "conditional sum", "条件付き合計"},
	},
	{
		Kind: KindFunction, Category: CategoryMath, Name: "SUMIFS",
		Description: "Adds the cells in a range that meet multiple criteria.",
		Syntax:      "SUMIFS(sum_range, criteria_range1, criteria1, ...)",
		Example:     `=SUMIFS(C:C, A:A, "East", B:B, ">100") sums C where A is East and B exceeds 100.`,
		Keywords:    []string{"sumifs"},
	},
	{
		Kind: KindFunction, Category: CategoryStats, Name: "COUNTIF",
		Description: "Counts the cells in a range that meet a single criterion.",
		Syntax:      "COUNTIF(range, criteria)",
		Example:     `=COUNTIF(B2:B100, ">=80") counts values of 80 or more.`,
		Keywords:    []string{"countif", "条件付きカウント"},
	},
	{
		Kind: KindFunction, Category: CategoryText, Name: "CONCATENATE",
		Description: "Joins two or more text strings into one string. TEXTJOIN is preferred in current Excel.",
		Syntax:      "CONCATENATE(text1, [text2], ...)",
		Example:     `=CONCATENATE(A2, " ", B2) joins first and last names with a space.`,
		Keywords:    []string{"concatenate", "concat", "join", "結合", "文字列結合"},
	},
	{
		Kind: KindFunction, Category: CategoryText, Name: "TEXTJOIN",
		Description: "Joins text from multiple ranges with a delimiter, optionally skipping empty cells.",
		Syntax:      "TEXTJOIN(delimiter, ignore_empty, text1, [text2], ...)",
		Example:     `=TEXTJOIN(", ", TRUE, A2:A10) joins A2:A10 with commas, skipping blanks.`,
		Keywords:    []string{"textjoin"},
	},
	{
		Kind: KindFunction, Category: CategoryText, Name: "LEFT",
		Description: "Returns the leftmost characters of a text string.",
		Syntax:      "LEFT(text, [num_chars])",
		Example:     "=LEFT(A2, 3) returns the first three characters of A2.",
		Keywords:    []string{"left", "左から"},
	},
	{
		Kind: KindFunction, Category: CategoryText, Name: "MID",
		Description: "Returns characters from the middle of a text string, given a start position and length.",
		Syntax:      "MID(text, start_num, num_chars)",
		Example:     "=MID(A2, 2, 4) returns four characters of A2 starting at the second.",
		Keywords:    []string{"mid", "中間"},
	},
	{
		Kind: KindFunction, Category: CategoryDate, Name: "TODAY",
		Description: "Returns the current date. The value updates on recalculation.",
		Syntax:      "TODAY()",
		Example:     "=TODAY() shows today's date.",
		Keywords:    []string{"today", "今日", "日付", "現在の日付"},
	},
	{
		Kind: KindFunction, Category: CategoryDate, Name: "DATE",
		Description: "Builds a date from separate year, month and day values.",
		Syntax:      "DATE(year, month, day)",
		Example:     "=DATE(2025, 4, 1) returns April 1, 2025.",
		Keywords:    []string{"date関数"},
	},
	{
		Kind: KindFunction, Category: CategoryMath, Name: "ROUND",
		Description: "Rounds a number to a specified number of digits.",
		Syntax:      "ROUND(number, num_digits)",
		Example:     "=ROUND(3.14159, 2) returns 3.14.",
		Keywords:    []string{"round", "rounding", "四捨五入"},
	},
	{
		Kind: KindFunction, Category: CategoryStats, Name: "MAX",
		Description: "Returns the largest value in a set of values.",
		Syntax:      "MAX(number1, [number2], ...)",
		Example:     "=MAX(A1:A10) returns the largest value in A1:A10.",
		Keywords:    []string{"max", "maximum", "最大", "最大値"},
	},
	{
		Kind: KindFunction, Category: CategoryStats, Name: "MIN",
		Description: "Returns the smallest value in a set of values.",
		Syntax:      "MIN(number1, [number2], ...)",
		Example:     "=MIN(A1:A10) returns the smallest value in A1:A10.",
		Keywords:    []string{"min", "minimum", "最小", "最小値"},
	},
}

var seedFeatures = []Entry{
	{
		Kind: KindFeature, Category: CategoryAnalysis, Name: "Pivot Table",
		Description: "Summarizes large tables by grouping and aggregating without formulas.",
		Steps: []string{
			"Select any cell inside your data range.",
			"Insert > PivotTable and confirm the range.",
			"Drag fields into Rows, Columns and Values.",
			"Right-click a value field to change the aggregation.",
		},
		Keywords: []string{"pivot", "pivot table", "ピボット", "ピボットテーブル", "集計"},
	},
	{
		Kind: KindFeature, Category: CategoryFormatting, Name: "Conditional Formatting",
		Description: "Colors cells automatically based on their values or a formula.",
		Steps: []string{
			"Select the target range.",
			"Home > Conditional Formatting.",
			"Pick a rule type (color scales, data bars, or a custom formula).",
			"Set the format and confirm.",
		},
		Keywords: []string{"conditional formatting", "条件付き書式", "highlight", "色分け"},
	},
	{
		Kind: KindFeature, Category: CategoryAnalysis, Name: "Data Validation",
		Description: "Restricts what can be typed into a cell, including dropdown lists.",
		Steps: []string{
			"Select the cells to restrict.",
			"Data > Data Validation.",
			"Choose List and enter the allowed values, or another criteria type.",
		},
		Keywords: []string{"data validation", "dropdown", "入力規則", "ドロップダウン", "プルダウン"},
	},
	{
		Kind: KindFeature, Category: CategoryAnalysis, Name: "Filter",
		Description: "Shows only the rows that match chosen criteria.",
		Steps: []string{
			"Select the header row.",
			"Data > Filter.",
			"Use the column arrows to pick values or conditions.",
		},
		Keywords: []string{"filter", "autofilter", "フィルター", "絞り込み"},
	},
	{
		Kind: KindFeature, Category: CategoryAnalysis, Name: "Chart",
		Description: "Visualizes a data range as a bar, line, pie or scatter chart.",
		Steps: []string{
			"Select the data including headers.",
			"Insert > Recommended Charts.",
			"Pick a chart type and adjust titles and axes.",
		},
		Keywords: []string{"chart", "graph", "グラフ", "チャート"},
	},
}

var seedVBATemplates = []Entry{
	{
		Kind: KindVBA, Category: CategoryAutomation, Name: "Loop Through Rows",
		Description: "Iterates over every used row on the active sheet.",
		Keywords:    []string{"loop", "rows", "repeat", "繰り返し", "ループ"},
		Code: `Sub LoopThroughRows()
    Dim lastRow As Long
    Dim i As Long
    lastRow = Cells(Rows.Count, 1).End(xlUp).Row
    For i = 1 To lastRow
        ' Work with Cells(i, 1) here
        Debug.Print Cells(i, 1).Value
    Next i
End Sub`,
	},
	{
		Kind: KindVBA, Category: CategoryAutomation, Name: "Delete Empty Rows",
		Description: "Removes rows whose first column is blank, bottom-up so indexes stay valid.",
		Keywords:    []string{"delete", "empty rows", "blank rows", "空白行", "削除"},
		Code: `Sub DeleteEmptyRows()
    Dim lastRow As Long
    Dim i As Long
    lastRow = Cells(Rows.Count, 1).End(xlUp).Row
    For i = lastRow To 1 Step -1
        If Application.WorksheetFunction.CountA(Rows(i)) = 0 Then
            Rows(i).Delete
        End If
    Next i
End Sub`,
	},
	{
		Kind: KindVBA, Category: CategoryAutomation, Name: "Copy Sheet",
		Description: "Copies the active worksheet to the end of the workbook with a dated name.",
		Keywords:    []string{"copy sheet", "duplicate", "シートコピー", "複製"},
		Code: `Sub CopySheet()
    ActiveSheet.Copy After:=Sheets(Sheets.Count)
    ActiveSheet.Name = "Copy_" & Format(Date, "yyyymmdd")
End Sub`,
	},
	{
		Kind: KindVBA, Category: CategoryAutomation, Name: "Create Sheets",
		Description: "Adds a worksheet per name listed in column A of the active sheet.",
		Keywords:    []string{"create sheet", "add sheet", "new sheet", "シート作成", "シート追加"},
		Code: `Sub CreateSheets()
    Dim cell As Range
    For Each cell In Range("A1", Cells(Rows.Count, 1).End(xlUp))
        If Len(cell.Value) > 0 Then
            Worksheets.Add(After:=Sheets(Sheets.Count)).Name = cell.Value
        End If
    Next cell
End Sub`,
	},
	{
		Kind: KindVBA, Category: CategoryFormatting, Name: "AutoFit Columns",
		Description: "Autofits every column on all worksheets.",
		Keywords:    []string{"autofit", "column width", "列幅", "自動調整"},
		Code: `Sub AutoFitAllColumns()
    Dim ws As Worksheet
    For Each ws In Worksheets
        ws.Cells.EntireColumn.AutoFit
    Next ws
End Sub`,
	},
	{
		Kind: KindVBA, Category: CategoryAutomation, Name: "Save As PDF",
		Description: "Exports the active sheet next to the workbook as a PDF.",
		Keywords:    []string{"pdf", "export", "save as pdf", "保存"},
		Code: `Sub SaveAsPDF()
    Dim path As String
    path = ThisWorkbook.Path & Application.PathSeparator & ActiveSheet.Name & ".pdf"
    ActiveSheet.ExportAsFixedFormat Type:=xlTypePDF, Filename:=path
    MsgBox "Saved: " & path
End Sub`,
	},
	{
		Kind: KindVBA, Category: CategoryFormatting, Name: "Highlight Duplicates",
		Description: "Colors duplicate values in the selected range.",
		Keywords:    []string{"duplicate", "duplicates", "重複"},
		Code: `Sub HighlightDuplicates()
    Dim cell As Range
    For Each cell In Selection
        If Application.WorksheetFunction.CountIf(Selection, cell.Value) > 1 Then
            cell.Interior.Color = vbYellow
        End If
    Next cell
End Sub`,
	},
	{
		Kind: KindVBA, Category: CategoryAutomation, Name: "Send Mail Draft",
		Description: "Prepares an Outlook mail draft from workbook data. Sending stays manual.",
		Keywords:    []string{"mail", "email", "outlook", "メール"},
		Code: `Sub SendMailDraft()
    Dim outlook As Object
    Dim mail As Object
    Set outlook = CreateObject("Outlook.Application")
    Set mail = outlook.CreateItem(0)
    mail.To = Range("A1").Value
    mail.Subject = Range("B1").Value
    mail.Body = Range("C1").Value
    mail.Display ' review before sending
End Sub`,
	},
}

var seedPractices = []Entry{
	{
		Kind: KindPractice, Category: CategoryGeneral, Name: "Formula Hygiene",
		Description: "Keep formulas auditable and cheap to recalculate.",
		Dos: []string{
			"Reference whole structured table columns instead of fixed ranges.",
			"Split complex logic across helper columns.",
			"Name important ranges so formulas read naturally.",
		},
		Donts: []string{
			"Nest more than three IF levels; use IFS or a lookup table.",
			"Use volatile functions (OFFSET, INDIRECT) in large sheets.",
		},
		Keywords: []string{"best practice", "formula", "数式", "ベストプラクティス"},
	},
	{
		Kind: KindPractice, Category: CategoryGeneral, Name: "Workbook Structure",
		Description: "Separate raw data, calculations and presentation.",
		Dos: []string{
			"Keep one sheet of untouched source data.",
			"Document assumptions on a dedicated notes sheet.",
		},
		Donts: []string{
			"Merge cells inside data ranges; it breaks sorting and lookups.",
			"Hard-code constants inside formulas.",
		},
		Keywords: []string{"structure", "workbook", "シート構成"},
	},
	{
		Kind: KindPractice, Category: CategoryAutomation, Name: "VBA Safety",
		Description: "Make macros predictable and recoverable.",
		Dos: []string{
			"Save a backup before running a macro that writes data.",
			"Use Option Explicit in every module.",
			"Qualify ranges with their worksheet.",
		},
		Donts: []string{
			"Rely on Select/Activate; operate on ranges directly.",
			"Swallow errors with On Error Resume Next without handling.",
		},
		Keywords: []string{"vba", "macro", "safety", "マクロ"},
	},
}

var seedFAQ = []Entry{
	{
		Kind: KindFAQ, Category: CategoryGeneral, Name: "vlookup-na",
		Question:    "Why does my VLOOKUP return #N/A?",
		Answer:      "The lookup value was not found in the first column of the table, or the cell types differ (text vs number). Check for stray spaces with TRIM and wrap the call in IFERROR for a friendly fallback.",
		Description: "VLOOKUP returns #N/A when the key is missing or types mismatch.",
		Keywords:    []string{"#n/a", "vlookup error", "見つかりません"},
	},
	{
		Kind: KindFAQ, Category: CategoryGeneral, Name: "freeze-panes",
		Question:    "How do I keep the header row visible while scrolling?",
		Answer:      "Select the row below your header, then View > Freeze Panes > Freeze Panes. 'Freeze Top Row' does the same for a single-row header.",
		Description: "Freeze Panes pins header rows and columns while scrolling.",
		Keywords:    []string{"freeze", "header", "固定", "ウィンドウ枠"},
	},
	{
		Kind: KindFAQ, Category: CategoryGeneral, Name: "circular-reference",
		Question:    "Excel warns about a circular reference. What now?",
		Answer:      "A formula refers to its own cell, directly or through a chain. Use Formulas > Error Checking > Circular References to jump to the offending cell and restructure the calculation.",
		Description: "Circular reference warnings and how to locate the cycle.",
		Keywords:    []string{"circular", "循環参照"},
	},
	{
		Kind: KindFAQ, Category: CategoryAutomation, Name: "enable-macros",
		Question:    "My macro buttons do nothing after opening the file.",
		Answer:      "Macros are disabled by default for downloaded files. Save the workbook as .xlsm, then enable content via the security bar, or unblock the file in its Properties dialog.",
		Description: "Enabling macros in downloaded .xlsm workbooks.",
		Keywords:    []string{"enable macro", "xlsm", "マクロ有効"},
	},
}
