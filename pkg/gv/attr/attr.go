// Package attr names well-known Graphviz attributes and their enumerated
// values.
//
// The constants are plain strings; any attribute the engine understands can
// be set without them. They exist so that common keys and values are
// checked by the compiler rather than spelled by hand:
//
//	n.SetAttr(attr.Shape, attr.ShapeBox)
//	e.SetAttr(attr.Style, attr.StyleDashed)
//	g.SetAttr(attr.RankDir, attr.RankDirLR)
//
// See https://graphviz.org/doc/info/attrs.html for the full reference.
package attr

// Keys shared by graphs, nodes and edges.
const (
	Label     = "label"
	Color     = "color"
	Style     = "style"
	FontName  = "fontname"
	FontSize  = "fontsize"
	FontColor = "fontcolor"
	URL       = "URL"
	Tooltip   = "tooltip"
	PenWidth  = "penwidth"
	Pos       = "pos"
)

// Graph keys.
const (
	RankDir     = "rankdir"
	Size        = "size"
	Ratio       = "ratio"
	BgColor     = "bgcolor"
	Page        = "page"
	Margin      = "margin"
	Concentrate = "concentrate"
	Ordering    = "ordering"
	RankSep     = "ranksep"
	NodeSep     = "nodesep"
	Rotate      = "rotate"
	Splines     = "splines"
	Overlap     = "overlap"
	DPI         = "dpi"
	Scale       = "scale"
	Pad         = "pad"
	Center      = "center"
	LabelLoc    = "labelloc"
	BoundingBox = "bb"
)

// Node keys.
const (
	Shape       = "shape"
	FillColor   = "fillcolor"
	Width       = "width"
	Height      = "height"
	FixedSize   = "fixedsize"
	Group       = "group"
	Image       = "image"
	Distortion  = "distortion"
	Skew        = "skew"
	Sides       = "sides"
	Orientation = "orientation"
	Peripheries = "peripheries"
)

// Edge keys.
const (
	Dir           = "dir"
	Weight        = "weight"
	MinLen        = "minlen"
	Constraint    = "constraint"
	LabelAngle    = "labelangle"
	LabelDistance = "labeldistance"
	LabelTooltip  = "labeltooltip"
	Decorate      = "decorate"
	TailPort      = "tailport"
	HeadPort      = "headport"
	ArrowHead     = "arrowhead"
	ArrowTail     = "arrowtail"
	LabelPos      = "lp"
)

// Node shapes.
const (
	ShapeBox           = "box"
	ShapeCircle        = "circle"
	ShapeEllipse       = "ellipse"
	ShapePoint         = "point"
	ShapeDiamond       = "diamond"
	ShapePolygon       = "polygon"
	ShapeRecord        = "record"
	ShapePlainText     = "plaintext"
	ShapePlain         = "plain"
	ShapeHouse         = "house"
	ShapeInvHouse      = "invhouse"
	ShapeTriangle      = "triangle"
	ShapeInvTriangle   = "invtriangle"
	ShapeHexagon       = "hexagon"
	ShapeOctagon       = "octagon"
	ShapeDoubleCircle  = "doublecircle"
	ShapeDoubleOctagon = "doubleoctagon"
	ShapeTripleOctagon = "tripleoctagon"
	ShapeTrapezium     = "trapezium"
	ShapeInvTrapezium  = "invtrapezium"
	ShapeParallelogram = "parallelogram"
	ShapeFolder        = "folder"
	ShapeBox3D         = "box3d"
	ShapeComponent     = "component"
	ShapeCylinder      = "cylinder"
	ShapeNote          = "note"
	ShapeTab           = "tab"
	ShapeMdiamond      = "Mdiamond"
	ShapeMsquare       = "Msquare"
	ShapeMcircle       = "Mcircle"
	ShapeSignature     = "signature"
)

// Styles. Several may be combined with commas, e.g. "rounded,filled".
const (
	StyleSolid     = "solid"
	StyleDashed    = "dashed"
	StyleDotted    = "dotted"
	StyleBold      = "bold"
	StyleFilled    = "filled"
	StyleRounded   = "rounded"
	StyleDiagonals = "diagonals"
	StyleInvis     = "invis"
	StyleTapered   = "tapered"
	StyleStriped   = "striped"
	StyleWedged    = "wedged"
	StyleRadial    = "radial"
)

// Edge directions.
const (
	DirForward = "forward"
	DirBack    = "back"
	DirBoth    = "both"
	DirNone    = "none"
)

// Rank directions.
const (
	RankDirTB = "TB"
	RankDirLR = "LR"
	RankDirBT = "BT"
	RankDirRL = "RL"
)

// Arrow shapes.
const (
	ArrowNormal  = "normal"
	ArrowBox     = "box"
	ArrowCrow    = "crow"
	ArrowCurve   = "curve"
	ArrowDiamond = "diamond"
	ArrowDot     = "dot"
	ArrowInv     = "inv"
	ArrowNone    = "none"
	ArrowTee     = "tee"
	ArrowVee     = "vee"
	ArrowEmpty   = "empty"
	ArrowOpen    = "open"
)

// Edge routing modes for [Splines].
const (
	SplinesTrue     = "true"
	SplinesFalse    = "false"
	SplinesNone     = "none"
	SplinesLine     = "line"
	SplinesPolyline = "polyline"
	SplinesCurved   = "curved"
	SplinesOrtho    = "ortho"
	SplinesSpline   = "spline"
	SplinesCompound = "compound"
)

// Overlap removal strategies for [Overlap].
const (
	OverlapTrue     = "true"
	OverlapFalse    = "false"
	OverlapScale    = "scale"
	OverlapScaleXY  = "scalexy"
	OverlapPrism    = "prism"
	OverlapCompress = "compress"
	OverlapVPSC     = "vpsc"
	OverlapOrtho    = "ortho"
	OverlapOrthoXY  = "orthoxy"
	OverlapIPSep    = "ipsep"
	OverlapVoronoi  = "voronoi"
)

// Ratio modes for [Ratio]. A positive number is accepted as well.
const (
	RatioFill     = "fill"
	RatioCompress = "compress"
	RatioExpand   = "expand"
	RatioAuto     = "auto"
)

// SplineModes lists the accepted values of [Splines].
var SplineModes = []string{
	SplinesTrue, SplinesFalse, SplinesNone, SplinesLine, SplinesPolyline,
	SplinesCurved, SplinesOrtho, SplinesSpline, SplinesCompound,
}

// OverlapModes lists the accepted values of [Overlap], excluding the
// "prism<N>" form that carries an iteration count.
var OverlapModes = []string{
	OverlapTrue, OverlapFalse, OverlapScale, OverlapScaleXY, OverlapPrism,
	OverlapCompress, OverlapVPSC, OverlapOrtho, OverlapOrthoXY, OverlapIPSep,
	OverlapVoronoi,
}
