package parser

// Parser classifies simulator output line by line
type Parser interface {
	ClassifyLine(line string) LineClass
}
