package style

import (
	"silk/utils/debug"
)

// Dump renders tree in indented human readable form for debug reports.
func Dump(nodes []Node) string {
	tw := debug.NewTreeWriter()
	dump(tw, 0, nodes)
	return tw.String()
}

func dump(tw *debug.TreeWriter, depth int, nodes []Node) {
	for _, n := range nodes {
		switch n.Kind {
		case KindLeaf:
			tw.Value(depth, n.Key, n.Value)
		case KindPseudo:
			tw.Line(depth, "pseudo %s (%s)", n.Name, n.Key)
		case KindResponsive:
			if n.Params == "" {
				tw.Line(depth, "breakpoint %s", n.Name)
			} else {
				tw.Line(depth, "breakpoint %s %s", n.Name, n.Params)
			}
		case KindAtRule:
			tw.Line(depth, "%s", n.Wrapper())
		}
		if n.IsBlock() {
			dump(tw, depth+1, n.Children)
		}
	}
}
