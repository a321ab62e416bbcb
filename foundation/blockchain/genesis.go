package blockchain

// GenesisPreviousHash is the fixed sentinel a block must carry as its
// previous hash to be accepted as the first block of an empty chain. It
// never appears as the output of SHA-256.
const GenesisPreviousHash = "0000000000000000000000000000000000000000000000000000000000000000"
