package pipeline

// speciesPrompt asks for a fully structured identification. The JSON-only
// instruction pairs with the router's json capability requirement.
const speciesPrompt = `You are an expert naturalist. Identify the organism in this photo.

Respond with JSON only, using exactly these keys:
{
  "category": "plant" | "animal" | "bug" | "unknown",
  "common_name": "most widely used common name, or empty string",
  "scientific_name": "binomial scientific name, or empty string",
  "confidence": 0.0 to 1.0,
  "details": "one sentence of identifying features you observed"
}

Use "bug" for insects, arachnids, and other arthropods. If you cannot tell
what organism this is, set category to "unknown" and confidence below 0.3.
Never invent a scientific name you are not sure of; leave it empty instead.`

// quickPrompt is the cheap degraded tier. It still asks for JSON so a
// well-formed reply parses structurally, but prose answers are tolerated
// and mined with loose pattern extraction instead.
const quickPrompt = `Name the plant, animal, or insect in this photo. Reply with one JSON object only:
{"category": "plant" | "animal" | "bug" | "unknown", "common_name": "...", "confidence": 0.0 to 1.0}
If you cannot tell, reply {"category": "unknown", "common_name": "", "confidence": 0}.`
