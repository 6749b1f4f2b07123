package mcpserver

// QuerySyntax describes the search language accepted by find_notes and by
// the cleanup deletion predicates.
const QuerySyntax = `# morphclean Query Syntax

A query is a list of space-separated terms. A note matches when every term
matches. Prefix a term with ` + "`-`" + ` to negate it. Wrap a term in double quotes
when it contains spaces.

## Terms

| Term                 | Matches                                              |
|----------------------|------------------------------------------------------|
| ` + "`tag:NAME`" + `           | notes carrying the tag (case-insensitive, ` + "`*`" + ` wildcard) |
| ` + "`is:new`" + `             | notes with a card that has never been studied        |
| ` + "`is:learn`" + `           | notes with a card in the learning queue              |
| ` + "`is:review`" + `          | notes with a card in review                          |
| ` + "`is:suspended`" + `       | notes with a suspended card                          |
| ` + "`is:buried`" + `          | notes with a buried card                             |
| ` + "`mid:ID`" + `             | notes of the given note type                         |
| ` + "`nid:ID,ID`" + `          | notes with the given ids                             |
| ` + "`Field:VALUE`" + `        | field equals VALUE (` + "`*`" + ` wildcard, case-insensitive)   |
| ` + "`Field:_*`" + `           | field is non-empty                                   |
| ` + "`Field:`" + `             | field is empty                                       |
| ` + "`text`" + `               | any field contains the text                          |

Field names are matched exactly.

## Examples

` + "```" + `
tag:morphman is:new tag:mm_comprehension
tag:morphman is:suspended
"TargetMorph:_*" is:new
mid:1598115874278 -tag:done
` + "```" + `
`
