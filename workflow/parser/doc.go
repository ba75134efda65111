/*
Package parser compiles a textual workflow definition into a validated
workflow.Graph.

The pipeline runs four stages over one definition:

 1. Graph building: one node per declared element, transitions kept as
    unresolved names.
 2. Defaults resolution: endpoint addresses and shared configuration are
    merged into every action node from three tiers (node-local, workflow
    global section, site defaults).
 3. Structural validation: a single depth-first pass proving name validity,
    transition resolution, acyclicity and action-type support.
 4. Fork/join validation: a second traversal proving that every parallel
    split is rejoined correctly and that no node can execute twice at run
    time.

Any fault aborts the parse with a *workflow.Error; there is no recovery and
no partial result. A Parser carries no per-parse state and may be shared by
concurrent callers.
*/
package parser
