/*
Package workflow defines the node-graph model shared by the definition
parser and the execution engine.

A workflow definition compiles into a [Graph]: a name-keyed set of [Node]
values plus a single start node. Nodes are a closed tagged union over
[NodeKind]; transitions are stored as ordered target names and are proven to
resolve during validation, not at construction.

All definition faults surface as a single [Error] kind carrying a
machine-readable [ErrorCode] and a human-readable detail. A graph is mutable
only while the parser owns it; after validation it is read-only and safe for
concurrent readers.
*/
package workflow
