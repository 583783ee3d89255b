// Package topic maps hermes topics to and from the slash-delimited paths
// they are published under.
//
// Every component of a hermes voice assistant (hotword detector, speech
// recognizer, language understanding, speech synthesis, dialogue manager,
// audio server) addresses the others only through these paths:
//
//	hermes/<family>[/<site>]/<command>[/<argument>]
//	hermes/intent/<intent-name>
//
// Encode renders a Topic and cannot fail. Decode is its partial inverse and
// reports false for anything it does not recognize. For every topic t for
// which IsCanonical(t) holds, Decode(Encode(t)) returns t.
//
// Command tokens are the declared enumeration names with the first letter
// lowercased, so DialogueManager becomes dialogueManager on the wire. The
// version request, version and error commands of every component are
// represented by the generic Component topic rather than by each family's
// own command type.
//
// Both functions are pure and safe for concurrent use.
package topic
