package export

import (
	"bytes"
	_ "embed"
	"fmt"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// QuestionKind selects how a question block is laid out.
type QuestionKind string

const (
	KindMCQ         QuestionKind = "mcq"
	KindShortAnswer QuestionKind = "short_answer"
	KindLongAnswer  QuestionKind = "long_answer"
)

// Writing space, in ruled lines, left under open questions.
const (
	ShortAnswerLines = 3
	LongAnswerLines  = 8
)

// DefaultInstitution heads papers whose teacher has no institution.
const DefaultInstitution = "School Name"

// paperEpoch is stamped as creation and modification date so identical input
// yields identical bytes.
var paperEpoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// paperFont is an embedded TrueType family; text is written as UTF-8.
const paperFont = "DejaVu"

var (
	//go:embed fonts/DejaVuSansCondensed.ttf
	fontRegular []byte
	//go:embed fonts/DejaVuSansCondensed-Bold.ttf
	fontBold []byte
	//go:embed fonts/DejaVuSansCondensed-Oblique.ttf
	fontItalic []byte
)

// PaperQuestion is one question as printed on the paper. AnswerIndex is the
// position of Answer within Options, or -1.
type PaperQuestion struct {
	Kind        QuestionKind
	Text        string
	Options     []string
	Answer      *string
	AnswerIndex int
	Explanation *string
	Marks       int
}

// TestDocument carries everything printed on a paper.
type TestDocument struct {
	InstitutionName string
	Title           string
	Subject         string
	Chapter         *string
	Duration        *int
	TotalMarks      *int
	TeacherName     string
	Questions       []PaperQuestion
}

// PaperOptions toggles optional sections.
type PaperOptions struct {
	IncludeHeader       bool
	IncludeInstructions bool
	ShowMarks           bool
	IncludeAnswers      bool
}

// BlockKind identifies an element of the paper layout.
type BlockKind string

const (
	BlockInstitution    BlockKind = "institution"
	BlockTitle          BlockKind = "title"
	BlockDetail         BlockKind = "detail"
	BlockRule           BlockKind = "rule"
	BlockSectionHeading BlockKind = "section_heading"
	BlockInstruction    BlockKind = "instruction"
	BlockQuestion       BlockKind = "question"
	BlockOption         BlockKind = "option"
	BlockWritingLines   BlockKind = "writing_lines"
	BlockAnswerKeyEntry BlockKind = "answer_key_entry"
	BlockExplanation    BlockKind = "explanation"
)

// Block is one drawable element. Note holds the right-aligned marks
// annotation of a question; Lines the count of ruled writing lines.
type Block struct {
	Kind  BlockKind
	Text  string
	Note  string
	Lines int
}

// Section headings.
const (
	InstructionsHeading = "Instructions:"
	AnswerKeyHeading    = "Answer Key:"
)

var (
	instructionsBefore = []string{
		"All questions are compulsory.",
		"Write your answers clearly and legibly.",
	}
	marksInstruction  = "Marks are indicated against each question."
	instructionsAfter = []string{"Do not use calculators or mobile phones during the test."}
)

// OptionLetter returns the label of the option at index i: A, B, C and so on.
func OptionLetter(i int) string {
	if i < 0 {
		return ""
	}
	label := ""
	for {
		label = string(rune('A'+i%26)) + label
		i = i/26 - 1
		if i < 0 {
			return label
		}
	}
}

// PaperLayout returns the ordered blocks the PDF is drawn from.
func PaperLayout(doc TestDocument, opts PaperOptions) []Block {
	var blocks []Block

	if opts.IncludeHeader {
		institution := doc.InstitutionName
		if institution == "" {
			institution = DefaultInstitution
		}
		blocks = append(blocks,
			Block{Kind: BlockInstitution, Text: institution},
			Block{Kind: BlockTitle, Text: doc.Title},
			Block{Kind: BlockDetail, Text: "Subject: " + doc.Subject},
		)
		if doc.Chapter != nil && *doc.Chapter != "" {
			blocks = append(blocks, Block{Kind: BlockDetail, Text: "Chapter: " + *doc.Chapter})
		}
		if doc.Duration != nil {
			blocks = append(blocks, Block{Kind: BlockDetail, Text: fmt.Sprintf("Duration: %d minutes", *doc.Duration)})
		}
		if doc.TotalMarks != nil {
			blocks = append(blocks, Block{Kind: BlockDetail, Text: "Total Marks: " + strconv.Itoa(*doc.TotalMarks)})
		}
		blocks = append(blocks,
			Block{Kind: BlockDetail, Text: "Teacher: " + doc.TeacherName},
			Block{Kind: BlockRule},
		)
	}

	if opts.IncludeInstructions {
		lines := append([]string(nil), instructionsBefore...)
		if opts.ShowMarks {
			lines = append(lines, marksInstruction)
		}
		lines = append(lines, instructionsAfter...)
		blocks = append(blocks, Block{Kind: BlockSectionHeading, Text: InstructionsHeading})
		for i, line := range lines {
			blocks = append(blocks, Block{Kind: BlockInstruction, Text: fmt.Sprintf("%d. %s", i+1, line)})
		}
	}

	for i, q := range doc.Questions {
		block := Block{Kind: BlockQuestion, Text: fmt.Sprintf("Q%d. %s", i+1, q.Text)}
		if opts.ShowMarks {
			block.Note = fmt.Sprintf("(%d marks)", q.Marks)
		}
		blocks = append(blocks, block)

		switch q.Kind {
		case KindMCQ:
			for j, opt := range q.Options {
				blocks = append(blocks, Block{Kind: BlockOption, Text: OptionLetter(j) + ") " + opt})
			}
		case KindShortAnswer:
			blocks = append(blocks, Block{Kind: BlockWritingLines, Lines: ShortAnswerLines})
		case KindLongAnswer:
			blocks = append(blocks, Block{Kind: BlockWritingLines, Lines: LongAnswerLines})
		}
	}

	if opts.IncludeAnswers {
		blocks = append(blocks, Block{Kind: BlockSectionHeading, Text: AnswerKeyHeading})
		for i, q := range doc.Questions {
			blocks = append(blocks, Block{Kind: BlockAnswerKeyEntry, Text: fmt.Sprintf("Q%d. %s", i+1, answerText(q))})
			if q.Explanation != nil && *q.Explanation != "" {
				blocks = append(blocks, Block{Kind: BlockExplanation, Text: "Explanation: " + *q.Explanation})
			}
		}
	}

	return blocks
}

func answerText(q PaperQuestion) string {
	if q.Answer == nil || *q.Answer == "" {
		return "N/A"
	}
	if q.Kind == KindMCQ && q.AnswerIndex >= 0 && q.AnswerIndex < len(q.Options) {
		return fmt.Sprintf("Option %s: %s", OptionLetter(q.AnswerIndex), *q.Answer)
	}
	return *q.Answer
}

// TestPaperRenderer draws test papers with gofpdf.
type TestPaperRenderer struct {
	newPDF func() *gofpdf.Fpdf
}

// NewTestPaperRenderer constructs the renderer for A4 portrait output.
func NewTestPaperRenderer() *TestPaperRenderer {
	return &TestPaperRenderer{newPDF: func() *gofpdf.Fpdf {
		return gofpdf.New("P", "mm", "A4", "")
	}}
}

// Render lays out doc and returns the PDF bytes. An empty question list
// still yields a valid document.
func (r *TestPaperRenderer) Render(doc TestDocument, opts PaperOptions) ([]byte, error) {
	pdf := r.newPDF()
	pdf.SetCreationDate(paperEpoch)
	pdf.SetModificationDate(paperEpoch)
	pdf.SetCatalogSort(true)
	pdf.SetTitle(doc.Title, true)
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddUTF8FontFromBytes(paperFont, "", fontRegular)
	pdf.AddUTF8FontFromBytes(paperFont, "B", fontBold)
	pdf.AddUTF8FontFromBytes(paperFont, "I", fontItalic)
	pdf.AddPage()

	width, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	contentWidth := width - left - right

	for _, b := range PaperLayout(doc, opts) {
		switch b.Kind {
		case BlockInstitution:
			pdf.SetFont(paperFont, "B", 16)
			pdf.CellFormat(0, 9, b.Text, "", 1, "C", false, 0, "")
		case BlockTitle:
			pdf.SetFont(paperFont, "B", 14)
			pdf.CellFormat(0, 8, b.Text, "", 1, "C", false, 0, "")
			pdf.Ln(2)
		case BlockDetail:
			pdf.SetFont(paperFont, "", 10)
			pdf.CellFormat(0, 6, b.Text, "", 1, "L", false, 0, "")
		case BlockRule:
			pdf.Ln(2)
			y := pdf.GetY()
			pdf.Line(left, y, left+contentWidth, y)
			pdf.Ln(4)
		case BlockSectionHeading:
			pdf.Ln(2)
			pdf.SetFont(paperFont, "B", 12)
			pdf.CellFormat(0, 7, b.Text, "", 1, "L", false, 0, "")
		case BlockInstruction:
			pdf.SetFont(paperFont, "", 10)
			pdf.SetX(left + 5)
			pdf.MultiCell(contentWidth-5, 5, b.Text, "", "L", false)
		case BlockQuestion:
			pdf.Ln(3)
			pdf.SetFont(paperFont, "B", 11)
			textWidth := contentWidth
			if b.Note != "" {
				textWidth -= 25
				y := pdf.GetY()
				pdf.SetXY(left+textWidth, y)
				pdf.SetFont(paperFont, "I", 10)
				pdf.CellFormat(25, 6, b.Note, "", 0, "R", false, 0, "")
				pdf.SetXY(left, y)
				pdf.SetFont(paperFont, "B", 11)
			}
			pdf.MultiCell(textWidth, 6, b.Text, "", "L", false)
		case BlockOption:
			pdf.SetFont(paperFont, "", 10)
			pdf.SetX(left + 8)
			pdf.MultiCell(contentWidth-8, 5, b.Text, "", "L", false)
		case BlockWritingLines:
			pdf.SetDrawColor(160, 160, 160)
			for i := 0; i < b.Lines; i++ {
				pdf.Ln(8)
				y := pdf.GetY()
				pdf.Line(left+5, y, left+contentWidth, y)
			}
			pdf.SetDrawColor(0, 0, 0)
			pdf.Ln(2)
		case BlockAnswerKeyEntry:
			pdf.SetFont(paperFont, "", 10)
			pdf.MultiCell(contentWidth, 5, b.Text, "", "L", false)
		case BlockExplanation:
			pdf.SetFont(paperFont, "I", 9)
			pdf.SetX(left + 8)
			pdf.MultiCell(contentWidth-8, 5, b.Text, "", "L", false)
		}
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("layout pdf: %w", err)
	}
	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
