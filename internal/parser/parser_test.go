package parser

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseCSV(t *testing.T) {
	testCases := []struct {
		name          string
		input         string
		expectedItems int
		expectedSkip  int
		expectedWord  string
		expectedMean  string
		expectedDef   string
	}{
		{
			name:          "Header and one row",
			input:         "word,pos,ipa,meaning,image,definition\nabide by,v,/əˈbaɪd/,tuân theo,abide.jpg,to accept a rule",
			expectedItems: 1,
			expectedWord:  "abide by",
			expectedMean:  "tuân theo",
			expectedDef:   "to accept a rule",
		},
		{
			name:          "No header",
			input:         "agreement,n,/əˈɡriːmənt/,hợp đồng,,a legal arrangement",
			expectedItems: 1,
			expectedWord:  "agreement",
			expectedMean:  "hợp đồng",
			expectedDef:   "a legal arrangement",
		},
		{
			name: "Comments and blank lines",
			input: `
# TOEIC lesson 1
assurance,n,/əˈʃʊərəns/,sự cam đoan,,a promise

cancellation,n,/ˌkænsəˈleɪʃn/,sự hủy bỏ,,the act of cancelling
`,
			expectedItems: 2,
		},
		{
			name:          "Short row is skipped",
			input:         "determine,v,/dɪˈtɜːmɪn/\nengage,v,/ɪnˈɡeɪdʒ/,tham gia,,to take part",
			expectedItems: 1,
			expectedSkip:  1,
			expectedWord:  "engage",
			expectedMean:  "tham gia",
			expectedDef:   "to take part",
		},
		{
			name:          "Quoted field with a comma",
			input:         `establish,v,/ɪˈstæblɪʃ/,"thành lập, thiết lập",,to start`,
			expectedItems: 1,
			expectedWord:  "establish",
			expectedMean:  "thành lập, thiết lập",
			expectedDef:   "to start",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := Parse(strings.NewReader(tc.input), CSV)
			if err != nil {
				t.Fatalf("Parse() returned an unexpected error: %v", err)
			}
			if len(res.Items) != tc.expectedItems {
				t.Fatalf("Expected %d items, but got %d", tc.expectedItems, len(res.Items))
			}
			if len(res.Skipped) != tc.expectedSkip {
				t.Errorf("Expected %d skipped rows, but got %d: %v", tc.expectedSkip, len(res.Skipped), res.Skipped)
			}
			if tc.expectedItems == 1 {
				item := res.Items[0]
				if item.Word != tc.expectedWord {
					t.Errorf("Expected Word to be '%s', but got '%s'", tc.expectedWord, item.Word)
				}
				if item.Meaning != tc.expectedMean {
					t.Errorf("Expected Meaning to be '%s', but got '%s'", tc.expectedMean, item.Meaning)
				}
				if item.Definition != tc.expectedDef {
					t.Errorf("Expected Definition to be '%s', but got '%s'", tc.expectedDef, item.Definition)
				}
			}
		})
	}
}

func TestParseTabbed(t *testing.T) {
	input := "1\tabide by\tv\t/əˈbaɪd/\t\ttuân theo\n" +
		"# comment\n" +
		"2\tagreement\tn\n" +
		"\n" +
		"3\tassurance\tn\t/əˈʃʊərəns/\tx\tsự cam đoan\r\n"

	res, err := Parse(strings.NewReader(input), Tabbed)
	if err != nil {
		t.Fatalf("Parse() returned an unexpected error: %v", err)
	}
	if len(res.Items) != 2 {
		t.Fatalf("Expected 2 items, but got %d", len(res.Items))
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Line != 3 {
		t.Errorf("Expected line 3 to be skipped, but got %v", res.Skipped)
	}
	if got := res.Items[1]; got.Word != "assurance" || got.Meaning != "sự cam đoan" || got.Phonetic != "/əˈʃʊərəns/" {
		t.Errorf("Unexpected item %+v", got)
	}
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "words.csv")
	if err := os.WriteFile(path, []byte("word,pos,ipa,meaning,image,definition\nfreight,n,/freɪt/,hàng hóa,,goods\n"), 0o600); err != nil {
		t.Fatalf("WriteFile() returned an unexpected error: %v", err)
	}

	res, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile() returned an unexpected error: %v", err)
	}
	if len(res.Items) != 1 || res.Items[0].Word != "freight" {
		t.Errorf("Expected the freight row, but got %+v", res.Items)
	}

	if _, err := ParseFile(filepath.Join(dir, "notes.md")); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Expected ErrUnsupported, but got %v", err)
	}
}
