package ir

import "strings"

// OSISBookOrder is the canonical order of OSIS book IDs (Protestant canon).
var OSISBookOrder = []string{
	"Gen", "Exod", "Lev", "Num", "Deut", "Josh", "Judg", "Ruth",
	"1Sam", "2Sam", "1Kgs", "2Kgs", "1Chr", "2Chr", "Ezra", "Neh",
	"Esth", "Job", "Ps", "Prov", "Eccl", "Song", "Isa", "Jer",
	"Lam", "Ezek", "Dan", "Hos", "Joel", "Amos", "Obad", "Jonah",
	"Mic", "Nah", "Hab", "Zeph", "Hag", "Zech", "Mal",
	"Matt", "Mark", "Luke", "John", "Acts", "Rom", "1Cor", "2Cor",
	"Gal", "Eph", "Phil", "Col", "1Thess", "2Thess", "1Tim", "2Tim",
	"Titus", "Phlm", "Heb", "Jas", "1Pet", "2Pet", "1John", "2John",
	"3John", "Jude", "Rev",
}

// usxBookCodes lists the Paratext/USX three-letter codes in the same order.
var usxBookCodes = []string{
	"GEN", "EXO", "LEV", "NUM", "DEU", "JOS", "JDG", "RUT",
	"1SA", "2SA", "1KI", "2KI", "1CH", "2CH", "EZR", "NEH",
	"EST", "JOB", "PSA", "PRO", "ECC", "SNG", "ISA", "JER",
	"LAM", "EZK", "DAN", "HOS", "JOL", "AMO", "OBA", "JON",
	"MIC", "NAM", "HAB", "ZEP", "HAG", "ZEC", "MAL",
	"MAT", "MRK", "LUK", "JHN", "ACT", "ROM", "1CO", "2CO",
	"GAL", "EPH", "PHP", "COL", "1TH", "2TH", "1TI", "2TI",
	"TIT", "PHM", "HEB", "JAS", "1PE", "2PE", "1JN", "2JN",
	"3JN", "JUD", "REV",
}

var bookNumbers = func() map[string]int {
	m := make(map[string]int, 2*len(OSISBookOrder))
	for i, b := range OSISBookOrder {
		m[b] = i + 1
	}
	for i, c := range usxBookCodes {
		m[c] = i + 1
	}
	return m
}()

// BookNumber returns the 1-based canonical number of an OSIS ID or USX code
// (0 if not found).
func BookNumber(code string) int {
	if n, ok := bookNumbers[code]; ok {
		return n
	}
	return bookNumbers[strings.ToUpper(code)]
}

// OSISBook returns the OSIS ID for a 1-based book number ("" if out of range).
func OSISBook(n int) string {
	if n < 1 || n > len(OSISBookOrder) {
		return ""
	}
	return OSISBookOrder[n-1]
}

// USXCode returns the USX code for a 1-based book number ("" if out of range).
func USXCode(n int) string {
	if n < 1 || n > len(usxBookCodes) {
		return ""
	}
	return usxBookCodes[n-1]
}
