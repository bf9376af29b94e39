package bot

import (
	"regexp"
	"strings"
)

// summaryPrefixRe matches the "<area>:" prefix of a commit summary line.
var summaryPrefixRe = regexp.MustCompile(`^([^:\n]+):`)

// commitLabelMap maps source-tree prefix tokens from commit summary lines to
// topic labels.
var commitLabelMap = map[string]string{
	"babeld":    "babel",
	"bfdd":      "bfd",
	"bgpd":      "bgp",
	"debian":    "packaging",
	"doc":       "documentation",
	"docker":    "docker",
	"eigrpd":    "eigrp",
	"fpm":       "fpm",
	"isisd":     "isis",
	"ldpd":      "ldp",
	"lib":       "libfrr",
	"nhrpd":     "nhrp",
	"ospf6d":    "ospfv3",
	"ospfd":     "ospf",
	"pbrd":      "pbr",
	"pimd":      "pim",
	"pkgsrc":    "packaging",
	"python":    "clippy",
	"redhat":    "packaging",
	"ripd":      "rip",
	"ripngd":    "ripng",
	"sharpd":    "sharp",
	"snapcraft": "packaging",
	"solaris":   "packaging",
	"staticd":   "staticd",
	"tests":     "tests",
	"tools":     "tools",
	"vtysh":     "vtysh",
	"vrrp":      "vrrp",
	"watchfrr":  "watchfrr",
	"yang":      "yang",
	"zebra":     "zebra",
	// files
	"configure.ac": "build",
	"Makefile.am":  "build",
	"bootstrap.sh": "build",
}

// labelsForCommit classifies a commit message's summary-line prefix tokens
// into topic labels. ok is false when the summary line carries no "<area>:"
// prefix at all, which counts as an improperly formatted message.
func labelsForCommit(message string) (labels []string, ok bool) {
	match := summaryPrefixRe.FindStringSubmatch(message)
	if match == nil {
		return nil, false
	}

	for _, token := range strings.Split(match[1], ",") {
		if label, known := commitLabelMap[strings.TrimSpace(token)]; known {
			labels = append(labels, label)
		}
	}

	return labels, true
}
