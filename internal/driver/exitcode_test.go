package driver

import "testing"

func TestExitCode(t *testing.T) {
	cases := []struct {
		name      string
		results   []*FileResult
		checkMode bool
		want      int
	}{
		{"all unchanged", []*FileResult{{Status: StatusUnchanged}}, false, 0},
		{"modified outside check mode", []*FileResult{{Status: StatusModified}}, false, 0},
		{"modified inside check mode", []*FileResult{{Status: StatusModified}}, true, 1},
		{"failed always exits 1", []*FileResult{{Status: StatusFailed}}, false, 1},
		{"failed wins over check mode", []*FileResult{{Status: StatusFailed}}, true, 1},
		{"empty result set", nil, true, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := ExitCode(c.results, c.checkMode); got != c.want {
				t.Errorf("ExitCode() = %d, want %d", got, c.want)
			}
		})
	}
}
