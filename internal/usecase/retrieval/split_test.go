package retrieval

import (
	"reflect"
	"testing"
)

func TestSplitQuery_QuestionMarks(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{
			name:  "fullwidth question marks",
			query: "如何安装？还有怎么卸载？",
			want:  []string{"如何安装", "还有怎么卸载"},
		},
		{
			name:  "halfwidth question marks",
			query: "how to install? how to uninstall?",
			want:  []string{"how to install", "how to uninstall"},
		},
		{
			name:  "mixed widths",
			query: "安装步骤？uninstall how?",
			want:  []string{"安装步骤", "uninstall how"},
		},
		{
			name:  "segments trimmed in original order",
			query: "  first ?  second ? third ",
			want:  []string{"first", "second", "third"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitQuery(tt.query)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitQuery(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestSplitQuery_TrailingQuestionMarkFallsThrough(t *testing.T) {
	// One non-empty segment only: the question-mark strategy does not
	// apply and the query stays whole.
	got := SplitQuery("如何安装？")
	want := []string{"如何安装？"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SplitQuery = %v, want %v", got, want)
	}
}

func TestSplitQuery_Connectives(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{
			name:  "chinese connective",
			query: "安装步骤还有卸载方法",
			want:  []string{"安装步骤", "卸载方法"},
		},
		{
			name:  "english connective",
			query: "install steps also uninstall steps",
			want:  []string{"install steps", "uninstall steps"},
		},
		{
			name:  "english connective case-insensitive",
			query: "install steps ALSO uninstall steps",
			want:  []string{"install steps", "uninstall steps"},
		},
		{
			name:  "first listed connective wins",
			query: "配置环境还有部署服务和监控",
			want:  []string{"配置环境", "部署服务和监控"},
		},
		{
			name:  "all occurrences split",
			query: "一还有二还有三",
			want:  []string{"一", "二", "三"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitQuery(tt.query)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitQuery(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestSplitQuery_Delimiters(t *testing.T) {
	long := "如何配置生产环境的服务器参数，生产环境需要哪些监控指标呢"
	got := SplitQuery(long)
	want := []string{"如何配置生产环境的服务器参数", "生产环境需要哪些监控指标呢"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SplitQuery(%q) = %v, want %v", long, got, want)
	}
}

func TestSplitQuery_ShortCommaQueryStaysWhole(t *testing.T) {
	// 20 runes or fewer: assumed single-topic even with a comma.
	q := "你好，在吗"
	got := SplitQuery(q)
	if !reflect.DeepEqual(got, []string{q}) {
		t.Errorf("SplitQuery(%q) = %v, want single element", q, got)
	}
}

func TestSplitQuery_DelimiterDropsShortFragments(t *testing.T) {
	// The second fragment is 5 runes or fewer, so only one part survives
	// and the query falls back to a single element.
	q := "请问如何配置生产环境的服务器各项参数，谢谢啦"
	got := SplitQuery(q)
	if !reflect.DeepEqual(got, []string{q}) {
		t.Errorf("SplitQuery(%q) = %v, want single element", q, got)
	}
}

func TestSplitQuery_Fallback(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"plain query", "怎么安装", []string{"怎么安装"}},
		{"whitespace trimmed", "  怎么安装  ", []string{"怎么安装"}},
		{"empty", "", []string{""}},
		{"whitespace only", "   ", []string{""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitQuery(tt.query)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitQuery(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestSplitQuery_NeverEmpty(t *testing.T) {
	queries := []string{
		"", " ", "?", "？？？", "和", "a, b", "安装和卸载", "如何安装？还有怎么卸载？",
	}
	for _, q := range queries {
		if got := SplitQuery(q); len(got) == 0 {
			t.Errorf("SplitQuery(%q) returned empty list", q)
		}
	}
}
