package segmenter

import (
	"encoding/json"
	"errors"
	"io"
	"math/rand/v2"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teatak/ikseg/dictionary"
)

func smart() Options {
	opts := DefaultOptions()
	opts.UseSmart = true
	return opts
}

func maxWord() Options {
	return DefaultOptions()
}

func segment(t *testing.T, dict *dictionary.Dictionary, text string, opts Options) []Lexeme {
	t.Helper()
	lexemes, err := Segment(dict, text, opts)
	require.NoError(t, err)
	return lexemes
}

func TestCut(t *testing.T) {
	dict := dictionary.NewFromWords([]string{"南京", "南京市", "市长", "长江", "大桥", "长江大桥", "江大桥"}, nil, nil)

	tests := []struct {
		text     string
		expected []string
	}{
		{"南京市长江大桥", []string{"南京市", "长江大桥"}},
		{"我是程序员", []string{"我", "是", "程", "序", "员"}}, // OOV example
	}

	for _, tt := range tests {
		got := Cut(dict, tt.text, smart())
		if !reflect.DeepEqual(got, tt.expected) {
			t.Errorf("Cut(%q) = %v, want %v", tt.text, got, tt.expected)
		}
	}
}

func TestCutMaxWord(t *testing.T) {
	dict := dictionary.NewFromWords([]string{"南京", "南京市", "市长", "长江", "大桥", "长江大桥", "江大桥"}, nil, nil)

	tests := []struct {
		text     string
		expected []string
	}{
		{"南京市长江大桥", []string{"南京市", "南京", "市长", "长江大桥", "长江", "江大桥", "大桥"}},
	}

	for _, tt := range tests {
		got := Cut(dict, tt.text, maxWord())
		if !reflect.DeepEqual(got, tt.expected) {
			t.Errorf("Cut(%q) = %v, want %v", tt.text, got, tt.expected)
		}
	}
}

func TestScenarioOverlappingWords(t *testing.T) {
	dict := dictionary.NewFromWords([]string{"中华", "华人", "人民", "共和国"}, nil, nil)

	got := Texts(segment(t, dict, "中华人民共和国", maxWord()))
	assert.Equal(t, []string{"中华", "华人", "人民", "共和国"}, got)

	lexemes := segment(t, dict, "中华人民共和国", smart())
	assert.Equal(t, []Lexeme{
		{Begin: 0, Length: 2, Text: "中华", Type: TypeCNWord},
		{Begin: 2, Length: 2, Text: "人民", Type: TypeCNWord},
		{Begin: 4, Length: 3, Text: "共和国", Type: TypeCNWord},
	}, lexemes)
}

func TestScenarioQuantifier(t *testing.T) {
	dict := dictionary.NewFromWords([]string{"三"}, []string{"个"}, nil)

	lexemes := segment(t, dict, "三个人", smart())
	assert.Equal(t, []Lexeme{
		{Begin: 0, Length: 2, Text: "三个", Type: TypeCQuan},
		{Begin: 2, Length: 1, Text: "人", Type: TypeCNChar},
	}, lexemes)

	lexemes = segment(t, dict, "三个人", maxWord())
	assert.Equal(t, []string{"三个", "三", "个", "人"}, Texts(lexemes))
	assert.Equal(t, TypeCQuan, lexemes[0].Type)
	assert.Equal(t, TypeCNChar, lexemes[3].Type)
}

func TestScenarioStopword(t *testing.T) {
	dict := dictionary.NewFromWords(nil, nil, []string{"的"})

	assert.Equal(t, []string{"你", "书"}, Cut(dict, "你的书", smart()))
	assert.Equal(t, []string{"你", "书"}, Cut(dict, "你的书", maxWord()))
}

func TestQuantifiers(t *testing.T) {
	dict := dictionary.NewFromWords([]string{"公里"}, []string{"个", "公里", "斤"}, nil)

	tests := []struct {
		text     string
		expected []Lexeme
	}{
		{"三十五个", []Lexeme{{Begin: 0, Length: 4, Text: "三十五个", Type: TypeCQuan}}},
		{"3个", []Lexeme{{Begin: 0, Length: 2, Text: "3个", Type: TypeCQuan}}},
		{"5公里", []Lexeme{{Begin: 0, Length: 3, Text: "5公里", Type: TypeCQuan}}},
		{"两斤 一", []Lexeme{
			{Begin: 0, Length: 2, Text: "两斤", Type: TypeCQuan},
			{Begin: 3, Length: 1, Text: "一", Type: TypeCNum},
		}},
	}
	for _, tt := range tests {
		got := segment(t, dict, tt.text, smart())
		if !reflect.DeepEqual(got, tt.expected) {
			t.Errorf("Segment(%q) = %v, want %v", tt.text, got, tt.expected)
		}
	}

	// a count word away from any numeral is an ordinary character
	assert.Equal(t, []string{"个", "人"}, Cut(dict, "个人", smart()))
}

func TestCompound(t *testing.T) {
	c := newScanContext(16, true)
	c.reset(strings.NewReader(""), dictionary.NewFromWords(nil, nil, nil))
	c.results = []Lexeme{
		{Begin: 0, Length: 2, Text: "12", Type: TypeArabic},
		{Begin: 2, Length: 1, Text: "万", Type: TypeCNum},
		{Begin: 3, Length: 1, Text: "个", Type: TypeCount},
		{Begin: 5, Length: 1, Text: "7", Type: TypeArabic},
		{Begin: 6, Length: 1, Text: "只", Type: TypeCount},
	}

	l, ok := c.nextLexeme(true)
	require.True(t, ok)
	assert.Equal(t, Lexeme{Begin: 0, Length: 4, Text: "12万个", Type: TypeCQuan}, l)

	l, ok = c.nextLexeme(true)
	require.True(t, ok)
	assert.Equal(t, Lexeme{Begin: 5, Length: 2, Text: "7只", Type: TypeCQuan}, l)

	_, ok = c.nextLexeme(true)
	assert.False(t, ok)
}

func TestLetters(t *testing.T) {
	dict := dictionary.NewFromWords(nil, nil, nil)

	tests := []struct {
		text     string
		smart    []string
		maxWord  []string
		firstTyp Type
	}{
		{"Hello World", []string{"hello", "world"}, []string{"hello", "world"}, TypeEnglish},
		{"3.14", []string{"3.14"}, []string{"3.14"}, TypeArabic},
		{"1,000,000", []string{"1,000,000"}, []string{"1,000,000", "1", "000", "000"}, TypeArabic},
		{"utf-8", []string{"utf-8"}, []string{"utf-8", "utf", "8"}, TypeLetter},
		{"user@example.com", []string{"user@example.com"}, []string{"user@example.com", "user", "example", "com"}, TypeLetter},
		{"abc- x", []string{"abc", "x"}, []string{"abc", "x"}, TypeEnglish},
		{"ｗｉｆｉ６", []string{"wifi6"}, []string{"wifi6", "wifi", "6"}, TypeLetter},
	}
	for _, tt := range tests {
		got := segment(t, dict, tt.text, smart())
		if !reflect.DeepEqual(Texts(got), tt.smart) {
			t.Errorf("smart %q = %v, want %v", tt.text, Texts(got), tt.smart)
		}
		if len(got) > 0 && got[0].Type != tt.firstTyp {
			t.Errorf("smart %q first type = %v, want %v", tt.text, got[0].Type, tt.firstTyp)
		}
		got = segment(t, dict, tt.text, maxWord())
		if !reflect.DeepEqual(Texts(got), tt.maxWord) {
			t.Errorf("max-word %q = %v, want %v", tt.text, Texts(got), tt.maxWord)
		}
	}
}

func TestLowercaseOption(t *testing.T) {
	dict := dictionary.NewFromWords([]string{"ik"}, nil, nil)

	lexemes := segment(t, dict, "ＩＫ分词", smart())
	require.NotEmpty(t, lexemes)
	assert.Equal(t, Lexeme{Begin: 0, Length: 2, Text: "ik", Type: TypeCNWord}, lexemes[0])

	opts := smart()
	opts.EnableLowercase = false
	lexemes = segment(t, dict, "ＩＫ分词", opts)
	require.NotEmpty(t, lexemes)
	assert.Equal(t, Lexeme{Begin: 0, Length: 2, Text: "IK", Type: TypeEnglish}, lexemes[0])
}

func TestMixedScripts(t *testing.T) {
	dict := dictionary.NewFromWords([]string{"分词", "t恤"}, nil, nil)

	lexemes := segment(t, dict, "T恤 分词器 かな 한국", smart())
	assert.Equal(t, []Lexeme{
		{Begin: 0, Length: 2, Text: "t恤", Type: TypeCNWord},
		{Begin: 3, Length: 2, Text: "分词", Type: TypeCNWord},
		{Begin: 5, Length: 1, Text: "器", Type: TypeCNChar},
		{Begin: 7, Length: 1, Text: "か", Type: TypeOtherCJK},
		{Begin: 8, Length: 1, Text: "な", Type: TypeOtherCJK},
		{Begin: 10, Length: 1, Text: "한", Type: TypeOtherCJK},
		{Begin: 11, Length: 1, Text: "국", Type: TypeOtherCJK},
	}, lexemes)
}

func TestSmartRanking(t *testing.T) {
	dict := dictionary.NewFromWords([]string{"研究", "研究生", "生命", "命", "起源"}, nil, nil)
	assert.Equal(t, []string{"研究", "生命", "起源"}, Cut(dict, "研究生命起源", smart()))

	dict = dictionary.NewFromWords([]string{"结婚", "和尚", "的", "尚未", "和", "未"}, nil, nil)
	assert.Equal(t, []string{"结婚", "的", "和", "尚未", "结婚", "的"}, Cut(dict, "结婚的和尚未结婚的", smart()))
}

func TestEmptyInput(t *testing.T) {
	dict := dictionary.NewFromWords([]string{"中文"}, nil, nil)
	for _, text := range []string{"", "   ", "，。！"} {
		lexemes, err := Segment(dict, text, smart())
		require.NoError(t, err)
		assert.Empty(t, lexemes, "%q", text)
	}

	seg := New(dict, nil, smart())
	_, err := seg.Next()
	assert.Equal(t, io.EOF, err)
	_, err = seg.Next()
	assert.Equal(t, io.EOF, err)
}

func TestNilProvider(t *testing.T) {
	assert.Equal(t, []string{"你", "好", "go"}, Cut(nil, "你好 Go", smart()))
}

func TestReadError(t *testing.T) {
	boom := errors.New("boom")
	seg := New(dictionary.NewFromWords(nil, nil, nil), iotest.ErrReader(boom), smart())
	_, err := seg.Next()
	assert.ErrorIs(t, err, boom)
	_, err = seg.Next()
	assert.ErrorIs(t, err, boom)

	seg.Reset(strings.NewReader("好"))
	l, err := seg.Next()
	require.NoError(t, err)
	assert.Equal(t, "好", l.Text)
}

type switchProvider struct {
	dict atomic.Pointer[dictionary.Dictionary]
}

func (p *switchProvider) Current() *dictionary.Dictionary {
	return p.dict.Load()
}

func TestSnapshotPerInput(t *testing.T) {
	p := &switchProvider{}
	p.dict.Store(dictionary.NewFromWords([]string{"北京"}, nil, nil))

	seg := New(p, strings.NewReader("北京 北京"), smart())
	first, err := seg.Next()
	require.NoError(t, err)
	assert.Equal(t, "北京", first.Text)

	p.dict.Store(dictionary.NewFromWords([]string{"北京"}, nil, []string{"北京"}))
	second, err := seg.Next()
	require.NoError(t, err)
	assert.Equal(t, "北京", second.Text, "input keeps the snapshot it started with")

	seg.Reset(strings.NewReader("北京"))
	_, err = seg.Next()
	assert.Equal(t, io.EOF, err, "reset takes the new snapshot")
}

func TestDeterminism(t *testing.T) {
	dict := testDictionary()
	text := strings.Repeat("中华人民共和国成立于1949年，三个代表。IK Analyzer 3.0 版本！", 20)
	for _, opts := range []Options{smart(), maxWord()} {
		a := segment(t, dict, text, opts)
		b := segment(t, dict, text, opts)
		assert.Equal(t, a, b)
	}
}

func TestSmallBufferMatchesDefault(t *testing.T) {
	dict := testDictionary()
	text := strings.Repeat("中华人民共和国成立于1949年，三个代表。IK Analyzer 3.0 版本！研究生命起源 ", 30)

	for _, opts := range []Options{smart(), maxWord()} {
		want := segment(t, dict, text, opts)
		for _, size := range []int{2, 3, 4, 5, 8, 32, 37, 64, 200} {
			small := opts
			small.BufferSize = size
			got := segment(t, dict, text, small)
			if !reflect.DeepEqual(got, want) {
				t.Errorf("buffer %d smart=%v: output differs from default buffer", size, opts.UseSmart)
			}
		}
	}
}

func TestWordAcrossBufferEnd(t *testing.T) {
	dict := dictionary.NewFromWords([]string{"中华人民共和国"}, nil, nil)
	opts := smart()
	opts.BufferSize = 4
	assert.Equal(t, []string{"中华人民共和国"}, Cut(dict, "中华人民共和国", opts))
	assert.Equal(t, []string{"你", "中华人民共和国"}, Cut(dict, "你中华人民共和国", opts))
}

func TestRandomTextAnyBufferSize(t *testing.T) {
	const alphabet = "中华人民共和国三个十二年研究生2a@-c.,あ "
	runes := []rune(alphabet)
	rng := rand.New(rand.NewPCG(3, 5))

	randomText := func(n int) string {
		var b strings.Builder
		for i := 0; i < n; i++ {
			b.WriteRune(runes[rng.IntN(len(runes))])
		}
		return b.String()
	}

	var words []string
	for i := 0; i < 30; i++ {
		words = append(words, randomText(2+rng.IntN(4)))
	}
	dict := dictionary.NewFromWords(append(words, "中华人民共和国", "研究生"), []string{"个", "年"}, nil)

	for i := 0; i < 100; i++ {
		text := randomText(1 + rng.IntN(80))
		for _, opts := range []Options{smart(), maxWord()} {
			want := segment(t, dict, text, opts)
			for _, size := range []int{2, 3, 4, 5, 7, 16} {
				small := opts
				small.BufferSize = size
				got := segment(t, dict, text, small)
				if !reflect.DeepEqual(got, want) {
					t.Fatalf("%q buffer %d smart=%v:\n got %v\nwant %v", text, size, opts.UseSmart, Texts(got), Texts(want))
				}
			}
		}
	}
}

func TestCompoundAcrossHeldRound(t *testing.T) {
	dict := dictionary.NewFromWords(nil, []string{"个"}, nil)
	tests := []struct {
		text     string
		expected []string
	}{
		{"2十一", []string{"2十一"}},
		{"我2十", []string{"我", "2十"}},
		{"共12个", []string{"共", "12个"}},
		{"2@-c", []string{"2@-c"}},
	}

	for _, tt := range tests {
		for _, size := range []int{2, 3} {
			opts := smart()
			opts.BufferSize = size
			got := Cut(dict, tt.text, opts)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Cut(%q) buffer %d = %v, want %v", tt.text, size, got, tt.expected)
			}
			assert.Equal(t, Cut(dict, tt.text, smart()), got)
		}
	}
}

func TestOffsetsAreStreamAbsolute(t *testing.T) {
	dict := dictionary.NewFromWords([]string{"你好"}, nil, nil)
	opts := smart()
	opts.BufferSize = 8
	text := strings.Repeat("你好，", 10)

	lexemes := segment(t, dict, text, opts)
	require.Len(t, lexemes, 10)
	for i, l := range lexemes {
		assert.Equal(t, i*3, l.Begin)
		assert.Equal(t, "你好", l.Text)
	}
}

func TestCoverageAndNonOverlap(t *testing.T) {
	const alphabet = "中华人民共和国三个的一二研究生命起源あ한a1 、"
	runes := []rune(alphabet)
	rng := rand.New(rand.NewPCG(7, 11))

	randomText := func(n int) string {
		var b strings.Builder
		for i := 0; i < n; i++ {
			b.WriteRune(runes[rng.IntN(len(runes))])
		}
		return b.String()
	}

	var words []string
	for i := 0; i < 40; i++ {
		words = append(words, randomText(2+rng.IntN(3)))
	}
	dict := dictionary.NewFromWords(words, []string{"个"}, nil)

	for i := 0; i < 200; i++ {
		text := randomText(1 + rng.IntN(60))
		in := []rune(text)

		for _, opts := range []Options{smart(), maxWord()} {
			lexemes := segment(t, dict, text, opts)
			covered := make([]bool, len(in))
			prevEnd := 0
			for _, l := range lexemes {
				require.True(t, l.Begin >= 0 && l.End() <= len(in), "%q: %+v out of range", text, l)
				require.Equal(t, string(in[l.Begin:l.End()]), l.Text, "%q", text)
				if opts.UseSmart {
					require.GreaterOrEqual(t, l.Begin, prevEnd, "%q: smart lexemes overlap", text)
					prevEnd = l.End()
				}
				for p := l.Begin; p < l.End(); p++ {
					covered[p] = true
				}
			}
			for p, r := range in {
				if typ := identify(r); (typ == charChinese || typ == charOtherCJK) && !covered[p] {
					t.Fatalf("%q smart=%v: rune %d (%c) not covered: %v", text, opts.UseSmart, p, r, lexemes)
				}
			}
		}
	}
}

func TestPathCompare(t *testing.T) {
	path := func(lexemes ...Lexeme) *lexemePath {
		p := newLexemePath()
		for _, l := range lexemes {
			require.True(t, p.addNotCross(l))
		}
		return p
	}
	lx := func(begin, length int) Lexeme {
		return Lexeme{Begin: begin, Length: length}
	}

	tests := []struct {
		name          string
		better, worse *lexemePath
	}{
		{"payload", path(lx(0, 4)), path(lx(0, 3))},
		{"fewer lexemes", path(lx(0, 4)), path(lx(0, 2), lx(2, 2))},
		{"wider span", path(lx(0, 1), lx(3, 1)), path(lx(0, 1), lx(1, 1))},
		{"later end", path(lx(1, 2)), path(lx(0, 2))},
		{"even split", path(lx(0, 2), lx(2, 2)), path(lx(0, 3), lx(3, 1))},
		{"longer tail", path(lx(0, 1), lx(1, 3)), path(lx(0, 3), lx(3, 1))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Negative(t, tt.better.compare(tt.worse))
			assert.Positive(t, tt.worse.compare(tt.better))
			assert.Zero(t, tt.better.compare(tt.better.copy()))
		})
	}
}

func TestCrossPaths(t *testing.T) {
	p := newLexemePath()
	assert.True(t, p.addCross(Lexeme{Begin: 0, Length: 2}))
	assert.True(t, p.addCross(Lexeme{Begin: 1, Length: 3}))
	assert.False(t, p.addCross(Lexeme{Begin: 4, Length: 1}))
	assert.Equal(t, 0, p.begin)
	assert.Equal(t, 4, p.end)
	assert.Equal(t, 4, p.payload)

	p.removeTail()
	assert.Equal(t, 2, p.end)
	p.removeTail()
	assert.Equal(t, -1, p.begin)
	assert.False(t, p.crosses(Lexeme{Begin: 0, Length: 1}))
}

func TestTypeString(t *testing.T) {
	assert.Equal(t, "CN_WORD", TypeCNWord.String())
	assert.Equal(t, "TYPE_CQUAN", TypeCQuan.String())
	assert.Equal(t, "UNKNOWN", Type(99).String())
	text, err := TypeOtherCJK.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "OTHER_CJK", string(text))
}

func TestLexemeJSON(t *testing.T) {
	l := Lexeme{Begin: 3, Length: 2, Text: "三个", Type: TypeCQuan}
	data, err := json.Marshal(l)
	require.NoError(t, err)
	assert.JSONEq(t, `{"begin":3,"length":2,"end":5,"text":"三个","type":"TYPE_CQUAN"}`, string(data))
}

func testDictionary() *dictionary.Dictionary {
	return dictionary.NewFromWords(
		[]string{"中华", "华人", "人民", "共和国", "中华人民共和国", "成立", "代表", "版本", "研究", "研究生", "生命", "起源", "ik"},
		[]string{"年", "个"},
		[]string{"于"},
	)
}
