package chatlog_test

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/chatscope/internal/chatlog"
)

var weekdaysKo = []string{"일요일", "월요일", "화요일", "수요일", "목요일", "금요일", "토요일"}

// march builds a Korean export with preamble lines and two messages per day
// for 2024-03-01 through 2024-03-10.
func march() []string {
	lines := []string{
		"Chat with Study Group",
		"Saved on: 2024-03-11 10:00",
	}
	for day := 1; day <= 10; day++ {
		d := time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC)
		lines = append(lines,
			fmt.Sprintf("--------------- 2024년 3월 %d일 %s ---------------", day, weekdaysKo[d.Weekday()]),
			fmt.Sprintf("[Kim] [오후 2:0%d] message from kim on %d", day%10, day),
			fmt.Sprintf("[Lee] [오후 3:0%d] reply from lee on %d", day%10, day),
		)
	}
	return lines
}

func day(s string) time.Time {
	t, err := time.Parse(chatlog.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestFilter_WindowSelectsBannerDays(t *testing.T) {
	t.Parallel()

	ex, err := chatlog.Filter(march(), chatlog.Window{Start: day("2024-03-03"), End: day("2024-03-05")})
	require.NoError(t, err)

	assert.Equal(t, 9, ex.Count(), "three banners with two messages each")
	assert.Equal(t, day("2024-03-03"), ex.First)
	assert.Equal(t, day("2024-03-05"), ex.Last)
	assert.True(t, strings.Contains(ex.Lines[0], "2024년 3월 3일"))
	assert.Equal(t, "[Lee] [오후 3:05] reply from lee on 5", ex.Lines[8])
}

func TestFilter_UnboundedDropsPreamble(t *testing.T) {
	t.Parallel()

	lines := march()
	ex, err := chatlog.Filter(lines, chatlog.Window{})
	require.NoError(t, err)

	assert.Equal(t, lines[2:], ex.Lines)
}

func TestFilter_WideningIsMonotonic(t *testing.T) {
	t.Parallel()

	windows := []chatlog.Window{
		{Start: day("2024-03-05"), End: day("2024-03-05")},
		{Start: day("2024-03-04"), End: day("2024-03-06")},
		{Start: day("2024-03-02"), End: day("2024-03-08")},
		{Start: day("2024-03-02")},
		{},
	}

	var prev []string
	for _, w := range windows {
		ex, err := chatlog.Filter(march(), w)
		require.NoError(t, err)
		kept := make(map[string]bool, len(ex.Lines))
		for _, l := range ex.Lines {
			kept[l] = true
		}
		for _, l := range prev {
			assert.True(t, kept[l], "line %q dropped after widening", l)
		}
		prev = ex.Lines
	}
}

func TestFilter_EmptyResults(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		lines []string
		w     chatlog.Window
	}{
		{name: "no input", lines: nil, w: chatlog.Window{}},
		{name: "no banners", lines: []string{"[Kim] [오후 2:00] hi"}, w: chatlog.Window{}},
		{name: "window outside log", lines: march(), w: chatlog.Window{Start: day("2025-01-01")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ex, err := chatlog.Filter(tt.lines, tt.w)
			require.NoError(t, err)
			assert.True(t, ex.Empty())
		})
	}
}

func TestFilter_InvalidBannerIsFatal(t *testing.T) {
	t.Parallel()

	lines := append(march(), "--------------- 2024년 2월 30일 금요일 ---------------")
	_, err := chatlog.Filter(lines, chatlog.Window{})
	require.Error(t, err)

	var dateErr *chatlog.DateError
	require.ErrorAs(t, err, &dateErr)
	assert.Equal(t, len(lines), dateErr.Line)
}

func TestParseBanner(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		line     string
		want     string
		isBanner bool
		wantErr  bool
	}{
		{name: "korean", line: "--------------- 2024년 3월 1일 금요일 ---------------", want: "2024-03-01", isBanner: true},
		{name: "korean without weekday", line: "--- 2024년 12월 31일 ---", want: "2024-12-31", isBanner: true},
		{name: "english", line: "--------------- Friday, March 1, 2024 ---------------", want: "2024-03-01", isBanner: true},
		{name: "english short month", line: "----- Sep 9, 2023 -----", want: "2023-09-09", isBanner: true},
		{name: "iso", line: "--------------- 2024-03-01 ---------------", want: "2024-03-01", isBanner: true},
		{name: "leap day", line: "--- 2024-02-29 ---", want: "2024-02-29", isBanner: true},
		{name: "mobile", line: "2024년 3월 1일 금요일", want: "2024-03-01", isBanner: true},
		{name: "mobile invalid day", line: "2024년 2월 30일 금요일", isBanner: true, wantErr: true},
		{name: "mobile message", line: "2024. 3. 1. 오후 2:06, Park : 2024년 3월 1일 금요일", isBanner: false},
		{name: "message", line: "[Kim] [오후 2:03] 2024-03-01", isBanner: false},
		{name: "plain dashes", line: "----------", isBanner: false},
		{name: "month 13", line: "--- 2024년 13월 1일 ---", isBanner: true, wantErr: true},
		{name: "not a leap year", line: "--- 2023-02-29 ---", isBanner: true, wantErr: true},
		{name: "unknown month", line: "--- Friday, Smarch 1, 2024 ---", isBanner: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, isBanner, err := chatlog.ParseBanner(tt.line)
			assert.Equal(t, tt.isBanner, isBanner)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.isBanner {
				assert.Equal(t, day(tt.want), got)
			}
		})
	}
}

func TestNewWindow(t *testing.T) {
	t.Parallel()

	w, err := chatlog.NewWindow("", "")
	require.NoError(t, err)
	assert.True(t, w.Start.IsZero() && w.End.IsZero())

	w, err = chatlog.NewWindow("2024-03-03", "2024-03-05")
	require.NoError(t, err)
	assert.True(t, w.Contains(day("2024-03-03")))
	assert.True(t, w.Contains(day("2024-03-05").Add(23*time.Hour)))
	assert.False(t, w.Contains(day("2024-03-06")))

	_, err = chatlog.NewWindow("2024-03-05", "2024-03-03")
	assert.Error(t, err)
	_, err = chatlog.NewWindow("03/05/2024", "")
	assert.Error(t, err)
}

func TestReadLines(t *testing.T) {
	t.Parallel()

	lines, err := chatlog.ReadLines(strings.NewReader("\ufefffirst\r\nsecond\r\n\r\nlast"))
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "", "last"}, lines)
}

func TestTail(t *testing.T) {
	t.Parallel()

	lines := []string{"a", "b", "c", "d"}
	got, cut := chatlog.Tail(lines, 2)
	assert.True(t, cut)
	assert.Equal(t, []string{"c", "d"}, got)

	got, cut = chatlog.Tail(lines, 0)
	assert.False(t, cut)
	assert.Equal(t, lines, got)
}

func TestFilter_MobileExport(t *testing.T) {
	t.Parallel()

	lines := []string{
		"Talk with Kim, Park",
		"2024년 3월 1일 금요일",
		"2024. 3. 1. 오후 2:06, Park : first day",
		"2024년 3월 2일 토요일",
		"2024. 3. 2. 오전 9:10, Kim : second day",
		"2024. 3. 2. 오전 9:11, Park : still the second",
	}
	ex, err := chatlog.Filter(lines, chatlog.Window{Start: day("2024-03-02")})
	require.NoError(t, err)

	assert.Equal(t, lines[3:], ex.Lines)
	assert.Equal(t, day("2024-03-02"), ex.First)
	assert.Equal(t, []string{"Kim", "Park"}, chatlog.Speakers(ex.Lines))
}

func TestSpeakers(t *testing.T) {
	t.Parallel()

	lines := []string{
		"--------------- 2024년 3월 1일 금요일 ---------------",
		"[Kim] [오후 2:03] hi",
		"[Lee Jiwoo] [오후 2:04] hello",
		"continuation line without header",
		"[Kim] [오후 2:05] again",
		"2024. 3. 1. 오후 2:06, Park : mobile export line",
	}
	assert.Equal(t, []string{"Kim", "Lee Jiwoo", "Park"}, chatlog.Speakers(lines))
	assert.Empty(t, chatlog.Speakers(nil))
}
