package insights

import "strings"

// Character map for romanizing Urdu-script transcript text. Lossy by nature;
// the output is meant to be readable, not reversible.
var urduRomanMap = map[rune]string{
	'ا': "a", 'آ': "aa", 'ب': "b", 'پ': "p", 'ت': "t", 'ٹ': "t", 'ث': "s",
	'ج': "j", 'چ': "ch", 'ح': "h", 'خ': "kh", 'د': "d", 'ڈ': "d", 'ذ': "z",
	'ر': "r", 'ڑ': "r", 'ز': "z", 'ژ': "zh", 'س': "s", 'ش': "sh", 'ص': "s",
	'ض': "z", 'ط': "t", 'ظ': "z", 'ع': "’", 'غ': "gh", 'ف': "f", 'ق': "q",
	'ک': "k", 'گ': "g", 'ل': "l", 'م': "m", 'ن': "n", 'ں': "n", 'و': "w",
	'ہ': "h", 'ھ': "h", 'ء': "’", 'ی': "y", 'ے': "e", 'َ': "a", 'ِ': "i",
	'ُ': "u", 'ً': "an", 'ٍ': "in", 'ٌ': "un", 'ّ': "", 'ْ': "",
}

// Whole-word replacements applied before the character map so common function
// words come out in their conventional Roman spelling.
var urduCommonWords = [][2]string{
	{" میں ", " mein "}, {" نہیں ", " nahi "}, {" ہے ", " hai "}, {" ہوں ", " hoon "},
	{" تھے ", " thay "}, {" تھا ", " tha "}, {" تھی ", " thi "}, {" ہوگا ", " hoga "},
	{" ہوگی ", " hogi "}, {" کیوں ", " kyun "}, {" کیا ", " kya "}, {" تم ", " tum "},
	{" ہم ", " hum "}, {" ہیں ", " hain "},
}

// Romanize transliterates Urdu-script text to Roman script. Characters with
// no mapping pass through unchanged, so mixed or fully Latin input is a
// no-op apart from whitespace normalization.
func Romanize(s string) string {
	t := " " + s + " "
	for _, repl := range urduCommonWords {
		t = strings.ReplaceAll(t, repl[0], repl[1])
	}

	var b strings.Builder
	b.Grow(len(t))
	for _, r := range t {
		if mapped, ok := urduRomanMap[r]; ok {
			b.WriteString(mapped)
		} else {
			b.WriteRune(r)
		}
	}

	roman := strings.Join(strings.Fields(b.String()), " ")
	for _, dup := range []string{"khh", "ghh", "shh"} {
		roman = strings.ReplaceAll(roman, dup, dup[:2])
	}
	return roman
}
