// Package domain holds the types shared by every layer of syfhack.
//
// Retrieval moves a RawDocument through Document and Chunk into
// IndexedVector entries, and answers with QueryResult hits or an
// AutomationContext. Classification turns AutomationStep values into
// StepSecurityReport and WorkflowSecurityReport values, driven by the
// pattern and approval tables of a RuleSet.
//
// domain imports the standard library only. Nothing here performs I/O.
package domain
