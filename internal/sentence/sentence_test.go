package sentence

import (
	"testing"

	"github.com/daikw/tapread/internal/token"
	"github.com/daikw/tapread/internal/tokenizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tk = tokenizer.New(tokenizer.WithoutBackend("ja"), tokenizer.WithoutBackend("zh"))

func stream(t *testing.T, text, code string) token.Stream {
	t.Helper()
	return tk.Tokenize(text, code, tokenizer.ModePreserve)
}

func TestReconstruct_English(t *testing.T) {
	got := Reconstruct(stream(t, "Hello, world! How are you?", "en"), Options{})

	assert.Equal(t, []Candidate{
		{Text: "Hello, world!", Start: 0, End: 3},
		{Text: "How are you?", Start: 4, End: 7},
	}, got)
}

func TestReconstruct_JapaneseFallback(t *testing.T) {
	got := Reconstruct(stream(t, "猫が好きです。犬も好きです。", "ja"), Options{})

	require.Len(t, got, 2)
	assert.Equal(t, "猫が好きです。", got[0].Text)
	assert.Equal(t, "犬も好きです。", got[1].Text)
	assert.Equal(t, 4, got[0].End)
	assert.Equal(t, 5, got[1].Start)
}

func TestReconstruct_Boundaries(t *testing.T) {
	tests := []struct {
		name string
		code string
		text string
		want []string
	}{
		{name: "trailing text without terminator", code: "en", text: "It ended. And then", want: []string{"It ended.", "And then"}},
		{name: "stray leading terminator", code: "en", text: "... Then silence.", want: []string{"Then silence."}},
		{name: "terminator run", code: "en", text: "Really?! Yes...", want: []string{"Really?!", "Yes..."}},
		{name: "closing quote attaches", code: "en", text: `"Run!" she said.`, want: []string{`"Run!"`, "she said."}},
		{name: "quote spanning sentences", code: "en", text: `"Hi. How are you?" she asked.`, want: []string{`"Hi.`, `How are you?"`, "she asked."}},
		{name: "typographic quotes", code: "en", text: "“Stop.” He froze.", want: []string{"“Stop.”", "He froze."}},
		{name: "closing paren", code: "en", text: "(It was late.) We left.", want: []string{"(It was late.)", "We left."}},
		{name: "japanese brackets", code: "ja", text: "「はい。」と言った。", want: []string{"「はい。」", "と言った。"}},
		{name: "chinese", code: "zh", text: "你好！我很好。", want: []string{"你好！", "我很好。"}},
		{name: "korean", code: "ko", text: "안녕하세요. 잘 지내요?", want: []string{"안녕하세요.", "잘 지내요?"}},
		{name: "spanish", code: "es", text: "¿Dónde está? ¡Aquí!", want: []string{"¿Dónde está?", "¡Aquí!"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reconstruct(stream(t, tt.text, tt.code), Options{})
			assert.Equal(t, tt.want, Texts(got))
		})
	}
}

func TestReconstruct_PositionsAreRecoverable(t *testing.T) {
	s := stream(t, `"Hi. How are you?" she asked. Fine (thanks).`, "en")
	for _, c := range Reconstruct(s, Options{}) {
		assert.Equal(t, c.Text, renderRange(s, c))
	}
	for _, c := range Reconstruct(s, Options{Exhaustive: true}) {
		assert.Equal(t, c.Text, renderRange(s, c))
	}
}

// renderRange re-renders a candidate from its indexes with the quote state of
// the stream at its start.
func renderRange(s token.Stream, c Candidate) string {
	j := newJoiner(0, quoteStates(s.Tokens)[c.Start])
	for _, t := range s.Tokens[c.Start : c.End+1] {
		j.add(t)
	}
	return j.String()
}

func TestReconstruct_Exhaustive(t *testing.T) {
	got := Reconstruct(stream(t, "Hello, world! How are you?", "en"), Options{Exhaustive: true})

	assert.Contains(t, got, Candidate{Text: "Hello, world!", Start: 0, End: 3})
	assert.Contains(t, got, Candidate{Text: "world!", Start: 2, End: 3})
	assert.Contains(t, got, Candidate{Text: "How are you?", Start: 4, End: 7})
	assert.Contains(t, got, Candidate{Text: "Hello, world! How are you?", Start: 0, End: 7})
	assert.Contains(t, got, Candidate{Text: "are", Start: 5, End: 5})

	for _, c := range got {
		assert.NotEqual(t, "Hello, world", c.Text, "prefix before a terminator is only emitted with it")
		assert.NotEqual(t, 3, c.Start, "terminators never start a candidate")
		assert.NotEqual(t, 7, c.Start, "terminators never start a candidate")
	}
}

func TestReconstruct_ExhaustiveCoversDefault(t *testing.T) {
	texts := map[string]string{
		"en": `"Run!" she said. (It was late.) Why?`,
		"ja": "「はい。」と言った。猫です",
	}
	for code, text := range texts {
		t.Run(code, func(t *testing.T) {
			s := stream(t, text, code)
			all := Reconstruct(s, Options{Exhaustive: true})
			for _, c := range Reconstruct(s, Options{}) {
				assert.Contains(t, all, c)
			}
		})
	}
}

func TestReconstruct_Window(t *testing.T) {
	got := Reconstruct(stream(t, "Hello, world! How are you?", "en"), Options{Exhaustive: true, Window: 2})

	texts := Texts(got)
	assert.Contains(t, texts, "world!")
	assert.Contains(t, texts, "Hello,")
	assert.NotContains(t, texts, "Hello, world!")
	for _, c := range got {
		assert.LessOrEqual(t, c.End-c.Start, 2)
	}
}

func TestReconstruct_Empty(t *testing.T) {
	assert.Empty(t, Reconstruct(token.Stream{Language: "en"}, Options{}))
	assert.Empty(t, Reconstruct(token.Stream{Language: "en"}, Options{Exhaustive: true}))
}

func TestRender(t *testing.T) {
	tests := []struct {
		name   string
		code   string
		tokens []string
		want   string
	}{
		{name: "latin", code: "en", tokens: []string{"Hello", ",", "world", "!"}, want: "Hello, world!"},
		{name: "brackets", code: "en", tokens: []string{"a", "(", "b", ")", "c"}, want: "a (b) c"},
		{name: "straight quotes alternate", code: "en", tokens: []string{"He", "said", `"`, "go", `"`, "."}, want: `He said "go".`},
		{name: "cjk concatenates", code: "ja", tokens: []string{"「", "猫", "」", "が", "。"}, want: "「猫」が。"},
		{name: "hangul is spaced", code: "ko", tokens: []string{"잘", "지내요", "?"}, want: "잘 지내요?"},
		{name: "french guillemets", code: "fr", tokens: []string{"«", "Oui", "»", "dit-il"}, want: "«Oui» dit-il"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks := make([]token.Token, len(tt.tokens))
			for i, s := range tt.tokens {
				toks[i] = token.Token{Text: s, Kind: token.Classify(s)}
			}
			assert.Equal(t, tt.want, Render(toks, tt.code))
		})
	}
}

func TestSplitter_Split(t *testing.T) {
	sp := NewSplitter(tk)

	got := sp.Split("Mr. Smith went to Washington. He arrived late.", "en")
	assert.Equal(t, []string{"Mr. Smith went to Washington.", "He arrived late."}, Texts(got))
	assert.Equal(t, 0, got[0].Start)

	got = sp.Split("猫が好きです。犬も好きです。", "ja")
	assert.Equal(t, []string{"猫が好きです。", "犬も好きです。"}, Texts(got))
}

func TestSplitter_SplitKeysAreExhaustiveCandidates(t *testing.T) {
	text := "Dr. Brown smiled. \"Welcome,\" she said.\nThe door closed."
	keys := NewSplitter(tk).Split(text, "en")
	require.NotEmpty(t, keys)

	all := Reconstruct(stream(t, text, "en"), Options{Exhaustive: true})
	for _, k := range keys {
		assert.Contains(t, all, k)
	}
}

func TestAlignBounds_Mismatch(t *testing.T) {
	s := stream(t, "Hello, world!", "en")

	_, err := alignBounds(s, []int{3})
	assert.Error(t, err)

	_, err = alignBounds(s, []int{6})
	assert.Error(t, err, "tokens left over")

	got, err := alignBounds(s, []int{6, 6})
	require.NoError(t, err)
	assert.Equal(t, []string{"Hello,", "world!"}, Texts(got))
}
