// Package textparse extracts a destination from a spoken navigation command,
// e.g. "带我去3楼302教室" or "洗手间在哪里".
package textparse

import (
	"regexp"
	"strings"
)

type CommandType string

const (
	Navigate CommandType = "navigate"
	Search   CommandType = "search"
	Unknown  CommandType = "unknown"
)

// Command is the structured form of a spoken instruction. Empty strings mean
// the part was not found.
type Command struct {
	Type        CommandType `json:"command_type"`
	Destination string      `json:"destination,omitempty"`
	Floor       string      `json:"floor,omitempty"`
	RoomNumber  string      `json:"room_number,omitempty"`
}

type keyword struct {
	re    *regexp.Regexp
	label string
}

// keywords are tried in order; the first match names the destination.
var keywords = []keyword{
	{regexp.MustCompile(`大厅`), "大厅"},
	{regexp.MustCompile(`实验室|试验室`), "实验室"},
	{regexp.MustCompile(`办公室|办公区`), "办公室"},
	{regexp.MustCompile(`教室|课室`), "教室"},
	{regexp.MustCompile(`洗手间|卫生间|厕所`), "洗手间"},
	{regexp.MustCompile(`楼梯|阶梯`), "楼梯"},
	{regexp.MustCompile(`电梯`), "电梯"},
	{regexp.MustCompile(`出口`), "出口"},
	{regexp.MustCompile(`入口`), "入口"},
}

// floorless destinations are shared by every floor and never get a prefix.
var floorless = map[string]bool{"楼梯": true, "电梯": true, "出口": true, "入口": true}

var (
	floorPattern = regexp.MustCompile(`(一|二|三|四|五|六|七|八|九|十|10|1|2|3|4|5|6|7|8|9)\s*(层|楼)`)
	roomPattern  = regexp.MustCompile(`(\d{3,4})(室|房间|教室)?`)
	navigateVerb = regexp.MustCompile(`去|到|前往|带我去|带我到|去往|导航到|导航去|带路到|带路去|怎么走|怎么去|如何去|如何到达|找|寻找|查找`)
	searchWord   = regexp.MustCompile(`在哪|位置`)
)

var chineseNumerals = map[string]string{
	"一": "1", "二": "2", "三": "3", "四": "4", "五": "5",
	"六": "6", "七": "7", "八": "8", "九": "9", "十": "10",
}

// Parser is stateless; the zero value is ready to use.
type Parser struct{}

func New() *Parser { return &Parser{} }

func (p *Parser) Parse(text string) Command {
	text = strings.ToLower(strings.TrimSpace(text))

	cmd := Command{Type: Unknown}
	switch {
	case navigateVerb.MatchString(text):
		cmd.Type = Navigate
	case searchWord.MatchString(text):
		cmd.Type = Search
	}

	cmd.Floor = extractFloor(text)
	if m := roomPattern.FindStringSubmatch(text); m != nil {
		cmd.RoomNumber = m[1]
	}
	for _, k := range keywords {
		if k.re.MatchString(text) {
			cmd.Destination = k.label
			break
		}
	}

	switch {
	case cmd.Floor != "" && cmd.RoomNumber != "":
		cmd.Destination = cmd.Floor + cmd.RoomNumber + "教室"
	case cmd.Floor != "" && cmd.Destination == "":
		cmd.Destination = cmd.Floor
	case cmd.Floor != "" && !floorless[cmd.Destination]:
		cmd.Destination = cmd.Floor + cmd.Destination
	}
	return cmd
}

// Standardize rewrites a location description into the names rooms are
// registered under, e.g. "3楼302" becomes "3楼02教室" and "二楼" becomes
// "2楼大厅". Text it cannot interpret is returned unchanged.
func (p *Parser) Standardize(location string) string {
	if location == "" {
		return ""
	}
	floor := extractFloor(location)
	if floor == "" {
		return location
	}

	if m := roomPattern.FindStringSubmatch(location); m != nil {
		room := m[1]
		if room[0] == floor[0] {
			room = room[1:]
		}
		return floor + room + "教室"
	}
	for _, k := range keywords {
		if k.re.MatchString(location) && !floorless[k.label] {
			return floor + k.label
		}
	}
	return floor + "大厅"
}

func extractFloor(text string) string {
	m := floorPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	n := m[1]
	if arabic, ok := chineseNumerals[n]; ok {
		n = arabic
	}
	return n + "楼"
}
