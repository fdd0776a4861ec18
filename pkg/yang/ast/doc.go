// Package ast defines the statement tree produced by parsing a YANG
// module. Every construct in a module is a Statement: a keyword, an
// optional argument, and nested substatements. The schema and type
// layers consume these trees; they never look at raw module text.
package ast
