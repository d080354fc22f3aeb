package bot

import "testing"

func TestParseID(t *testing.T) {
	tests := []struct {
		name string
		args string
		want int64
	}{
		{
			name: "valid test",
			args: "163454407999094786",
			want: 163454407999094786,
		},
		{
			name: "invalid test",
			args: "asdf",
			want: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseID(tt.args); got != tt.want {
				t.Errorf("parseID() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidPrefix(t *testing.T) {
	tests := []struct {
		name string
		args string
		want bool
	}{
		{name: "single char", args: "-", want: true},
		{name: "two chars", args: "y!", want: true},
		{name: "three chars", args: "!!!", want: false},
		{name: "empty", args: "", want: false},
		{name: "whitespace only", args: "   ", want: false},
		{name: "padded", args: " ! ", want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidPrefix(tt.args); got != tt.want {
				t.Errorf("ValidPrefix() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTrimRoleMention(t *testing.T) {
	tests := []struct {
		name string
		args string
		want string
	}{
		{
			name: "valid test",
			args: "<@&1234>",
			want: "1234",
		},
		{
			name: "valid test 2",
			args: "1234",
			want: "1234",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrimRoleMention(tt.args); got != tt.want {
				t.Errorf("TrimRoleMention() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTrimUserMention(t *testing.T) {
	tests := []struct {
		name string
		args string
		want string
	}{
		{
			name: "plain mention",
			args: "<@1234>",
			want: "1234",
		},
		{
			name: "nickname mention",
			args: "<@!1234>",
			want: "1234",
		},
		{
			name: "bare id",
			args: "1234",
			want: "1234",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrimUserMention(tt.args); got != tt.want {
				t.Errorf("TrimUserMention() = %v, want %v", got, tt.want)
			}
		})
	}
}
